/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package storage keeps small string values per browser: the last saved word
// list and the player's settings.
package storage

import (
	"context"
	"errors"
	"sync"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// KV is durable key-value storage scoped to one browser.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Backend hands out a KV per browser id.
type Backend interface {
	Namespace(id string) KV
	Close() error
}

// Memory is a Backend that forgets everything on restart.
type Memory struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]map[string]string)}
}

func (m *Memory) Namespace(id string) KV {
	return &memoryKV{m: m, ns: id}
}

func (m *Memory) Close() error { return nil }

type memoryKV struct {
	m  *Memory
	ns string
}

func (kv *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	kv.m.mu.RLock()
	defer kv.m.mu.RUnlock()

	v, ok := kv.m.values[kv.ns][key]
	return v, ok, nil
}

func (kv *memoryKV) Set(_ context.Context, key, value string) error {
	kv.m.mu.Lock()
	defer kv.m.mu.Unlock()

	if kv.m.values[kv.ns] == nil {
		kv.m.values[kv.ns] = make(map[string]string)
	}
	kv.m.values[kv.ns][key] = value

	return nil
}
