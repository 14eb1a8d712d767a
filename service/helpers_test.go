package service

import (
	"os"
	"testing"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/lightcycle-arena/match-server/config"
)

func newTestLogger(t *testing.T) general_i.Logger {
	t.Helper()
	l, err := logger.New("TEST", config.ColorCyan, os.Stdout)
	if err != nil {
		t.Fatalf("creating test logger: %v", err)
	}
	return l
}
