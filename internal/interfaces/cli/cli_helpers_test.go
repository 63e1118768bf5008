package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/termsim/internal/config"
	"github.com/turtacn/termsim/internal/domain/association"
	"github.com/turtacn/termsim/internal/domain/closure"
	"github.com/turtacn/termsim/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/internal/infrastructure/storage/minio"
	"github.com/turtacn/termsim/pkg/errors"
)

const (
	testSetTSV = "set1\tA\nset1\tB\nset2\tB\nset2\tC\n"
	closureTSV = "A\tanc1\nA\tanc2\nB\tanc2\nC\tanc3\n"
)

// fixture holds the example sources written to a temp dir.
type fixture struct {
	dir        string
	candidates string
	closure    string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:        dir,
		candidates: filepath.Join(dir, "test_set.tsv"),
		closure:    filepath.Join(dir, "closures.tsv"),
	}
	require.NoError(t, os.WriteFile(f.candidates, []byte(testSetTSV), 0o600))
	require.NoError(t, os.WriteFile(f.closure, []byte(closureTSV), 0o600))
	return f
}

func (f fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the command tree with isolated config search paths.
func run(t *testing.T, deps scoreDeps, stdin io.Reader, args ...string) result {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCommand(deps)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// fakeObjects is an in-memory ObjectStore.
type fakeObjects struct {
	objects      map[string]string
	contentTypes map[string]string
}

func newFakeObjects(objects map[string]string) *fakeObjects {
	if objects == nil {
		objects = map[string]string{}
	}
	return &fakeObjects{objects: objects, contentTypes: map[string]string{}}
}

func (f *fakeObjects) Open(ctx context.Context, uri minio.ObjectURI) (io.ReadCloser, error) {
	body, ok := f.objects[uri.String()]
	if !ok {
		return nil, errors.SourceRead(uri.String(), os.ErrNotExist)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeObjects) Upload(ctx context.Context, uri minio.ObjectURI, data []byte, contentType string) (*minio.UploadResult, error) {
	f.objects[uri.String()] = string(data)
	f.contentTypes[uri.String()] = contentType
	return &minio.UploadResult{Bucket: uri.Bucket, ObjectKey: uri.Key, Size: int64(len(data))}, nil
}

// fakeClosureRepo serves closure records from memory.
type fakeClosureRepo struct {
	records []association.Record
	err     error
	closed  bool
	backend string
	query   string
}

func (f *fakeClosureRepo) LoadClosure(ctx context.Context) ([]association.Record, error) {
	return f.records, f.err
}

func (f *fakeClosureRepo) Close() error {
	f.closed = true
	return nil
}

// fakePublisher records published messages.
type fakePublisher struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakePublisher) PublishBatch(ctx context.Context, msgs []kafka.Message) (*kafka.BatchResult, error) {
	if f.err != nil {
		return &kafka.BatchResult{Failed: len(msgs)}, f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return &kafka.BatchResult{Succeeded: len(msgs)}, nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

// withPublisher returns defaultScoreDeps with pub as the topic publisher.
func withPublisher(pub *fakePublisher) scoreDeps {
	deps := defaultScoreDeps()
	deps.newPublisher = func(*config.Config, logging.Logger) (recordPublisher, error) { return pub, nil }
	return deps
}

// withFakes returns deps backed by objects and repo; either may be nil.
func withFakes(objects *fakeObjects, repo *fakeClosureRepo) scoreDeps {
	return scoreDeps{
		newObjectStore: func(*config.Config, logging.Logger) (minio.ObjectStore, error) {
			if objects == nil {
				return nil, nil
			}
			return objects, nil
		},
		newClosureRepo: func(_ context.Context, cfg *config.Config, _ logging.Logger) (closure.Repository, io.Closer, error) {
			if repo == nil {
				return nil, nil, errors.SourceRead(closureSourceName(cfg), os.ErrNotExist)
			}
			repo.backend = cfg.Closure.Backend
			repo.query = cfg.Neo4j.ClosureQuery
			if cfg.Closure.Backend == config.ClosureBackendPostgres {
				repo.query = cfg.Postgres.ClosureQuery
			}
			return repo, repo, nil
		},
		newPublisher: newKafkaPublisher,
	}
}

func exampleClosureRecords() []association.Record {
	return []association.Record{
		{Key: "A", Value: "anc1"},
		{Key: "A", Value: "anc2"},
		{Key: "B", Value: "anc2"},
		{Key: "C", Value: "anc3"},
	}
}

//Personal.AI order the ending
