package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunningSession é o registro da sessão em andamento, gravado fora do banco
// antes do primeiro tick e apagado quando a sessão termina
type RunningSession struct {
	AttemptID       string    `json:"attempt_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	ExpectedEnd     time.Time `json:"expected_end"`
}

// ErrCorruptState indica um registro gravado que não pode ser decodificado
var ErrCorruptState = errors.New("corrupt timer state")

// StateStore guarda no máximo um RunningSession.
// Load devolve (nil, nil) quando não há sessão gravada.
type StateStore interface {
	Load(ctx context.Context) (*RunningSession, error)
	Save(ctx context.Context, rs RunningSession) error
	Clear(ctx context.Context) error
}

// FileStateStore grava o registro como JSON em um arquivo local
type FileStateStore struct {
	path string
}

func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{path: path}
}

func (f *FileStateStore) Load(_ context.Context) (*RunningSession, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read timer state: %w", err)
	}
	var rs RunningSession
	if err := json.Unmarshal(b, &rs); err != nil {
		return nil, fmt.Errorf("decode timer state: %w: %w", ErrCorruptState, err)
	}
	return &rs, nil
}

// Save escreve num arquivo temporário e renomeia, para nunca deixar JSON pela metade
func (f *FileStateStore) Save(_ context.Context, rs RunningSession) error {
	b, err := json.Marshal(rs)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".timer-state-*")
	if err != nil {
		return fmt.Errorf("create temp timer state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write timer state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync timer state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename timer state: %w", err)
	}
	return nil
}

func (f *FileStateStore) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear timer state: %w", err)
	}
	return nil
}

// RedisStateStore guarda o registro numa chave Redis, sem TTL
type RedisStateStore struct {
	client *redis.Client
	key    string
}

func NewRedisStateStore(c *redis.Client, key string) *RedisStateStore {
	return &RedisStateStore{client: c, key: key}
}

func (r *RedisStateStore) Load(ctx context.Context) (*RunningSession, error) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get timer state: %w", err)
	}
	var rs RunningSession
	if err := json.Unmarshal(b, &rs); err != nil {
		return nil, fmt.Errorf("decode timer state: %w: %w", ErrCorruptState, err)
	}
	return &rs, nil
}

func (r *RedisStateStore) Save(ctx context.Context, rs RunningSession) error {
	b, err := json.Marshal(rs)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, b, 0).Err()
}

func (r *RedisStateStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
