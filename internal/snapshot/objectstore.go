package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/example/liquidity-gate/internal/liquidity"
)

// Default object names of the curated files.
const (
	DefaultLedgerObject   = "curated/ledger_today.csv"
	DefaultBalancesObject = "curated/starting_balances.csv"
	DefaultBuffersObject  = "curated/buffers.json"
)

// ObjectStore reads whole named objects.
type ObjectStore interface {
	ReadObject(ctx context.Context, name string) ([]byte, error)
}

// Objects names the three curated files inside a store.
type Objects struct {
	Ledger   string
	Balances string
	Buffers  string
}

// DefaultObjects returns the standard curated layout.
func DefaultObjects() Objects {
	return Objects{
		Ledger:   DefaultLedgerObject,
		Balances: DefaultBalancesObject,
		Buffers:  DefaultBuffersObject,
	}
}

// ObjectRepository decodes the curated files held in an ObjectStore.
type ObjectRepository struct {
	Store   ObjectStore
	Objects Objects
}

// NewObjectRepository returns a repository over store. Empty object names
// fall back to the defaults.
func NewObjectRepository(store ObjectStore, objects Objects) *ObjectRepository {
	def := DefaultObjects()
	if objects.Ledger == "" {
		objects.Ledger = def.Ledger
	}
	if objects.Balances == "" {
		objects.Balances = def.Balances
	}
	if objects.Buffers == "" {
		objects.Buffers = def.Buffers
	}
	return &ObjectRepository{Store: store, Objects: objects}
}

func (r *ObjectRepository) LoadLedger(ctx context.Context) ([]liquidity.Transaction, error) {
	data, err := r.Store.ReadObject(ctx, r.Objects.Ledger)
	if err != nil {
		return nil, err
	}
	return DecodeLedgerCSV(data)
}

func (r *ObjectRepository) LoadBalances(ctx context.Context) ([]liquidity.BalanceRecord, error) {
	data, err := r.Store.ReadObject(ctx, r.Objects.Balances)
	if err != nil {
		return nil, err
	}
	return DecodeBalancesCSV(data)
}

func (r *ObjectRepository) LoadBuffers(ctx context.Context) ([]liquidity.BufferRule, error) {
	data, err := r.Store.ReadObject(ctx, r.Objects.Buffers)
	if err != nil {
		return nil, err
	}
	return DecodeBuffersJSON(data)
}

// GCSStore reads objects from one Cloud Storage bucket. The client is owned
// by the caller.
type GCSStore struct {
	Client *storage.Client
	Bucket string
}

// NewGCSStore creates a storage client. Without options it uses application
// default credentials.
func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{Client: client, Bucket: bucket}, nil
}

func (s *GCSStore) ReadObject(ctx context.Context, name string) ([]byte, error) {
	r, err := s.Client.Bucket(s.Bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader %s: %w", name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %s: %w", name, err)
	}
	return data, nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.Client.Close()
}

// DirStore reads objects from a local directory; object names are paths
// relative to Root.
type DirStore struct {
	Root string
}

func (s DirStore) ReadObject(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(name)))
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", name, err)
	}
	return data, nil
}
