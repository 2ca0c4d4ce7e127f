package elevation

import (
	"testing"

	"github.com/arthur-debert/winbackup/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRequireWithoutRelaunch(t *testing.T) {
	err := Require(false)
	if IsElevated() {
		assert.NoError(t, err)
		return
	}
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotElevated))
	assert.False(t, Relaunched(err))
}

func TestRelaunched(t *testing.T) {
	assert.False(t, Relaunched(nil))
	assert.True(t, Relaunched(errors.New(errors.ErrNotElevated, "x").WithDetail("relaunched", true)))
}

func TestQuoteArgs(t *testing.T) {
	assert.Equal(t, `--dry-run --base-dir "D:\My Backups" ""`,
		quoteArgs([]string{"--dry-run", "--base-dir", `D:\My Backups`, ""}))
}
