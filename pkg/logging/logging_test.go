package logging

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(NewFilter("warn", &buf), "", 0)

	logger.Print("[DEBUG] noisy")
	logger.Print("[INFO] chatty")
	logger.Print("[WARN] careful")
	logger.Print("[ERROR] broken")
	logger.Print("untagged")

	assert.Equal(t, "[WARN] careful\n[ERROR] broken\nuntagged\n", buf.String())
}

func TestUnknownLevelIsInfo(t *testing.T) {
	assert.EqualValues(t, "INFO", normalize("verbose"))
	assert.EqualValues(t, "WARN", normalize("Warning"))
	assert.EqualValues(t, "DEBUG", normalize(" debug "))
}
