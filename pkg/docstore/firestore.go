package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/aryankapoor/zapkart-backend/pkg/config"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore implements Store on top of Cloud Firestore. One document per
// (collection, user) pair; the snapshot listener is the change feed.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore connects a Firestore-backed document store.
func NewFirestore(ctx context.Context, cfg config.GCPConfig) (*Firestore, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("gcp project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	} else if cfg.ApplicationCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.ApplicationCredentials))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

func (f *Firestore) Get(ctx context.Context, collection, id string) ([]byte, bool, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	data, err := json.Marshal(snap.Data())
	if err != nil {
		return nil, false, fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	return data, true, nil
}

func (f *Firestore) Set(ctx context.Context, collection, id string, data []byte) error {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode payload for %s/%s: %w", collection, id, err)
	}
	if _, err := f.client.Collection(collection).Doc(id).Set(ctx, payload); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Subscribe(ctx context.Context, collection, id string, onChange func([]byte), onError func(error)) (CancelFunc, error) {
	feedCtx, cancel := context.WithCancel(ctx)
	iter := f.client.Collection(collection).Doc(id).Snapshots(feedCtx)

	go func() {
		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled || feedCtx.Err() != nil {
					return
				}
				if onError != nil {
					onError(err)
				}
				return
			}
			if !snap.Exists() {
				onChange(nil)
				continue
			}
			data, err := json.Marshal(snap.Data())
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			onChange(data)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			iter.Stop()
		})
	}, nil
}

// Close releases the underlying client.
func (f *Firestore) Close() error {
	if f == nil || f.client == nil {
		return nil
	}
	return f.client.Close()
}
