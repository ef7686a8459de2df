package app

import (
	"context"
	"crypto/sha256"
	"fmt"

	"go.uber.org/zap"

	"github.com/blockberries/crowdfund/types"
)

const snapshotFormat uint32 = 1
const snapshotChunkSize = 64 * 1024 // 64 KiB per chunk

// snapshot serializes committed state and describes it.
func (app *App[A, B, H, T, N]) snapshot() ([]byte, types.SnapshotDescriptor, error) {
	data, err := app.current.marshal()
	if err != nil {
		return nil, types.SnapshotDescriptor{}, err
	}
	return data, types.SnapshotDescriptor{
		Height: app.current.height,
		Format: snapshotFormat,
		Chunks: uint32((len(data) + snapshotChunkSize - 1) / snapshotChunkSize),
		Hash:   types.Hash(sha256.Sum256(data)),
	}, nil
}

// AvailableSnapshots offers the latest committed height.
func (app *App[A, B, H, T, N]) AvailableSnapshots(_ context.Context) ([]types.SnapshotDescriptor, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()

	if app.current == nil || app.current.height == 0 {
		return nil, nil
	}
	_, desc, err := app.snapshot()
	if err != nil {
		return nil, err
	}
	return []types.SnapshotDescriptor{desc}, nil
}

func (app *App[A, B, H, T, N]) ExportSnapshot(_ context.Context, height uint64, format uint32) (<-chan types.SnapshotChunk, *types.SnapshotDescriptor, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()

	if format != snapshotFormat {
		return nil, nil, fmt.Errorf("unsupported snapshot format %d", format)
	}
	if app.current == nil || app.current.height != height {
		return nil, nil, fmt.Errorf("snapshot at height %d not available", height)
	}
	data, desc, err := app.snapshot()
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan types.SnapshotChunk, desc.Chunks)
	go func() {
		defer close(ch)
		for i := uint32(0); i < desc.Chunks; i++ {
			start := int(i) * snapshotChunkSize
			end := min(start+snapshotChunkSize, len(data))
			ch <- types.SnapshotChunk{Index: i, Data: data[start:end]}
		}
	}()
	return ch, &desc, nil
}

func (app *App[A, B, H, T, N]) ImportSnapshot(_ context.Context, descriptor types.SnapshotDescriptor, chunks <-chan types.SnapshotChunk) (types.ImportResult, error) {
	if descriptor.Format != snapshotFormat {
		return types.ImportResult{
			Status: types.ImportReject,
			Reason: fmt.Sprintf("unsupported format %d", descriptor.Format),
		}, nil
	}

	received := make(map[uint32][]byte)
	for chunk := range chunks {
		if chunk.Index < descriptor.Chunks {
			received[chunk.Index] = chunk.Data
		}
	}
	if uint32(len(received)) != descriptor.Chunks {
		var missing []uint32
		for i := uint32(0); i < descriptor.Chunks; i++ {
			if _, ok := received[i]; !ok {
				missing = append(missing, i)
			}
		}
		return types.ImportResult{
			Status:       types.ImportRetryChunks,
			RetryIndices: missing,
		}, nil
	}

	var full []byte
	for i := uint32(0); i < descriptor.Chunks; i++ {
		full = append(full, received[i]...)
	}
	if types.Hash(sha256.Sum256(full)) != descriptor.Hash {
		return types.ImportResult{
			Status: types.ImportReject,
			Reason: "snapshot hash mismatch",
		}, nil
	}

	s, err := restoreState(app.env, full)
	if err != nil {
		return types.ImportResult{
			Status: types.ImportReject,
			Reason: fmt.Sprintf("restore state: %v", err),
		}, nil
	}
	if s.height != descriptor.Height {
		return types.ImportResult{
			Status: types.ImportReject,
			Reason: fmt.Sprintf("snapshot height %d, descriptor says %d", s.height, descriptor.Height),
		}, nil
	}
	appHash, err := s.appHash()
	if err != nil {
		return types.ImportResult{}, err
	}

	app.mu.Lock()
	app.current = s
	app.staged = nil
	app.mu.Unlock()

	app.log.Info("snapshot imported",
		zap.Uint64("height", s.height),
		zap.Uint64("next_id", s.contract.NextID()),
	)
	return types.ImportResult{
		Status:  types.ImportOK,
		AppHash: &appHash,
	}, nil
}
