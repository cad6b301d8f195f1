package export

import (
	"context"
	"strings"
	"sync"

	"github.com/joseph-ayodele/certidao-ocr/internal/common"
)

// LazySink defers Open until the first Write. Until then nothing is created
// or contacted: no file, table, bucket object or cloud client.
type LazySink struct {
	dest string
	deps Deps

	mu   sync.Mutex
	sink Sink
}

// OpenLazy checks dest without connecting and returns a sink that opens it on
// first use.
func OpenLazy(dest string, deps Deps) (*LazySink, error) {
	dest = strings.TrimSpace(dest)
	if err := CheckDestination(dest); err != nil {
		return nil, err
	}
	return &LazySink{dest: dest, deps: deps}, nil
}

// CheckDestination rejects destinations Open could never serve. It does no I/O.
func CheckDestination(dest string) error {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return common.NewAppError(common.CodeInvalidInput, "empty destination", nil)
	}
	for _, scheme := range []string{"s3://", "gs://", "firestore://"} {
		if strings.HasPrefix(dest, scheme) {
			_, _, err := splitBucketURI(dest)
			return err
		}
	}
	return nil
}

func (l *LazySink) Write(ctx context.Context, recs ...Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink == nil {
		s, err := Open(ctx, l.dest, l.deps)
		if err != nil {
			return err
		}
		l.sink = s
	}
	return l.sink.Write(ctx, recs...)
}

// Close closes the underlying sink if it was ever opened.
func (l *LazySink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

func (l *LazySink) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink != nil {
		return l.sink.String()
	}
	return l.dest
}

// AppendOnly reports whether s adds to its destination on each Write
// (store rows, Firestore documents) instead of replacing a whole file.
func AppendOnly(s Sink) bool {
	switch t := s.(type) {
	case *StoreSink, *FirestoreSink:
		return true
	case *LazySink:
		return IsStoreDSN(t.dest) || strings.HasPrefix(t.dest, "firestore://")
	default:
		return false
	}
}
