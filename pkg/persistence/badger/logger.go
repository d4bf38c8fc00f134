package badger

import (
	"fmt"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// storeLogger routes badger's internal logging through zap. Badger is chatty
// at info level (table compactions, value log GC), so its info output is
// demoted to debug; errors and warnings keep their severity.
type storeLogger struct {
	logger *zap.Logger
}

var _ badgerdb.Logger = (*storeLogger)(nil)

func (s *storeLogger) Errorf(format string, args ...interface{}) {
	s.logger.Error(format2msg(format, args...))
}

func (s *storeLogger) Warningf(format string, args ...interface{}) {
	s.logger.Warn(format2msg(format, args...))
}

func (s *storeLogger) Infof(format string, args ...interface{}) {
	s.logger.Debug(format2msg(format, args...))
}

func (s *storeLogger) Debugf(format string, args ...interface{}) {
	s.logger.Debug(format2msg(format, args...))
}

func format2msg(format string, args ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
