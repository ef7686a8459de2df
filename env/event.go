package env

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/blockberries/crowdfund/types"
)

// ErrTopicOverflow is matched by TopicOverflowError.
var ErrTopicOverflow = errors.New("env: too many event topics")

// TopicOverflowError reports an event declaring more indexed fields
// than the environment allows. It is a contract defect, not bad input.
type TopicOverflowError struct {
	Kind   string
	Topics int
	Max    int
}

func (e *TopicOverflowError) Error() string {
	return fmt.Sprintf("env: event %q declares %d topics, limit is %d", e.Kind, e.Topics, e.Max)
}

func (e *TopicOverflowError) Is(target error) bool { return target == ErrTopicOverflow }

// CheckTopics fails if n exceeds limit.
func CheckTopics(kind string, n, limit int) error {
	if n > limit {
		return &TopicOverflowError{Kind: kind, Topics: n, Max: limit}
	}
	return nil
}

// Topic is any value with a binary encoding: every Identifier and
// Numeric qualifies.
type Topic interface {
	Encode() []byte
}

// Event is an emitted event whose topics are already encoded into the
// environment's hash type.
type Event[H ClearableHash[H]] struct {
	Kind   string
	Topics []H
	Data   []byte
}

// NewEvent builds an event, failing with a TopicOverflowError if more
// topics are declared than e allows. Non-indexed fields are
// concatenated in order into Data.
func NewEvent[A Identifier[A], B Balance[B], H ClearableHash[H], T Numeric[T], N Numeric[N]](
	e Environment[A, B, H, T, N], kind string, topics []Topic, data ...Topic,
) (Event[H], error) {
	if err := CheckTopics(kind, len(topics), e.MaxEventTopics()); err != nil {
		return Event[H]{}, err
	}
	ev := Event[H]{Kind: kind, Topics: make([]H, 0, len(topics))}
	for i, t := range topics {
		h, err := EncodeTopic(e.Hash, t)
		if err != nil {
			return Event[H]{}, fmt.Errorf("env: event %q topic %d: %w", kind, i, err)
		}
		ev.Topics = append(ev.Topics, h)
	}
	for _, d := range data {
		ev.Data = append(ev.Data, d.Encode()...)
	}
	return ev, nil
}

// EncodeTopic encodes t into a hash-width slot. Encodings that fit are
// zero-padded; longer ones are replaced by their blake2b-256 digest.
func EncodeTopic[H ClearableHash[H]](conv func([]byte) (H, error), t Topic) (H, error) {
	var zero H
	enc := t.Encode()
	buf := make([]byte, zero.Len())
	if len(enc) <= len(buf) {
		copy(buf, enc)
	} else {
		sum := blake2b.Sum256(enc)
		copy(buf, sum[:])
	}
	return conv(buf)
}

// Wire converts the event for inclusion in a transaction outcome.
func (ev Event[H]) Wire() types.Event {
	w := types.Event{Kind: ev.Kind, Data: ev.Data}
	for _, t := range ev.Topics {
		w.Topics = append(w.Topics, t.Bytes())
	}
	return w
}
