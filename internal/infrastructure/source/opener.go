// Package source turns record source URIs into readable row streams.
package source

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/internal/infrastructure/source/delimited"
	"github.com/turtacn/termsim/internal/infrastructure/storage/minio"
	"github.com/turtacn/termsim/pkg/errors"
)

// StdinURI reads rows from standard input.
const StdinURI = "-"

const fileScheme = "file://"

// Kind classifies a source URI.
type Kind string

const (
	KindFile   Kind = "file"
	KindObject Kind = "object"
	KindStdin  Kind = "stdin"
)

// Classify returns the kind of uri and the location within that kind.
func Classify(uri string) (Kind, string) {
	switch {
	case uri == StdinURI:
		return KindStdin, uri
	case minio.IsObjectURI(uri):
		return KindObject, uri
	case strings.HasPrefix(uri, fileScheme):
		return KindFile, strings.TrimPrefix(uri, fileScheme)
	default:
		return KindFile, uri
	}
}

// Opener opens record sources.  Objects is nil when no object store is
// configured, in which case s3:// URIs are rejected.
type Opener struct {
	Objects   minio.ObjectStore
	Delimiter string
	Stdin     io.Reader
	Logger    logging.Logger
}

// NewOpener returns an Opener reading stdin from os.Stdin.
func NewOpener(objects minio.ObjectStore, delimiter string, logger logging.Logger) *Opener {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Opener{
		Objects:   objects,
		Delimiter: delimiter,
		Stdin:     os.Stdin,
		Logger:    logger,
	}
}

// Open returns a reader over uri.  The caller must Close it.
func (o *Opener) Open(ctx context.Context, uri string) (*delimited.Reader, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, errors.New(errors.ErrCodeSourceURIInvalid, "record source is empty")
	}

	kind, location := Classify(uri)
	o.Logger.Debug("opening record source",
		logging.String(logging.FieldSource, uri),
		logging.String("kind", string(kind)))

	switch kind {
	case KindStdin:
		stdin := o.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		// Closing the reader must not close the process stdin.
		return delimited.Open("<stdin>", io.NopCloser(stdin), o.Delimiter)

	case KindObject:
		objURI, err := minio.ParseURI(location)
		if err != nil {
			return nil, err
		}
		if o.Objects == nil {
			return nil, errors.New(errors.ErrCodeSourceURIInvalid, "s3 sources need minio.endpoint to be configured").
				WithDetail("uri=" + uri)
		}
		comma, err := delimited.ResolveDelimiter(o.Delimiter, objURI.Key)
		if err != nil {
			return nil, err
		}
		rc, err := o.Objects.Open(ctx, objURI)
		if err != nil {
			return nil, err
		}
		return delimited.NewReader(uri, rc, comma), nil

	default:
		if location == "" {
			return nil, errors.New(errors.ErrCodeSourceURIInvalid, "file URI has no path").WithDetail("uri=" + uri)
		}
		return delimited.OpenFile(location, o.Delimiter)
	}
}

//Personal.AI order the ending
