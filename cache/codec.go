package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrCorruptEntry marks a durable-store value that cannot be decoded into a
// valid Envelope. Callers treat such entries as absent and delete them.
var ErrCorruptEntry = errors.New("cache: corrupt entry")

// Envelope is the serialized form of a cache entry. Data holds the payload
// as JSON; Timestamp and TTL are milliseconds (epoch and duration
// respectively). The invariant TTL > 0 holds for every stored envelope.
type Envelope struct {
	Data      json.RawMessage `json:"data" msgpack:"data"`
	Timestamp int64           `json:"timestamp" msgpack:"timestamp"`
	TTL       int64           `json:"ttl" msgpack:"ttl"`
}

// StoredAt returns the envelope's write time.
func (e Envelope) StoredAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Expired reports whether the entry has exceeded its TTL at the given
// instant. The comparison is strict: an entry whose age equals its TTL is
// still valid.
func (e Envelope) Expired(now time.Time) bool {
	age := now.UnixMilli() - e.Timestamp
	return age > e.TTL
}

func (e Envelope) validate() error {
	if e.Timestamp <= 0 {
		return fmt.Errorf("%w: non-positive timestamp", ErrCorruptEntry)
	}
	if e.TTL <= 0 {
		return fmt.Errorf("%w: non-positive ttl", ErrCorruptEntry)
	}
	return nil
}

// EntryCodec serializes envelopes to and from durable-store string values.
type EntryCodec interface {
	Encode(env Envelope) (string, error)
	Decode(value string) (Envelope, error)
}

// JSONCodec is the default codec. Its wire format is a single JSON object
// per key: {"data": <json>, "timestamp": <int ms>, "ttl": <int ms>}.
type JSONCodec struct{}

// Encode implements EntryCodec.
func (JSONCodec) Encode(env Envelope) (string, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("cache: encode envelope: %w", err)
	}
	return string(raw), nil
}

// Decode implements EntryCodec. Any value that does not parse into a valid
// envelope is reported as ErrCorruptEntry.
func (JSONCodec) Decode(value string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(value), &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	if err := env.validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// MsgpackCodec encodes envelopes with msgpack for a more compact durable
// representation. The payload inside Data remains JSON; only the envelope
// framing changes.
type MsgpackCodec struct{}

// Encode implements EntryCodec.
func (MsgpackCodec) Encode(env Envelope) (string, error) {
	raw, err := msgpack.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("cache: encode envelope: %w", err)
	}
	return string(raw), nil
}

// Decode implements EntryCodec.
func (MsgpackCodec) Decode(value string) (Envelope, error) {
	var env Envelope
	if err := msgpack.Unmarshal([]byte(value), &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	if err := env.validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
