package manifest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	text := `# generated
version 1
flash boot
flash --apply-vbmeta vbmeta
flash --slot-other system system_other.img
reboot fastboot
update-super
flash product
if-wipe erase userdata
reboot
`
	m, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Version)
	assert.Equal(t, []Directive{
		{Op: OpFlash, Partition: "boot", Image: "boot.img"},
		{Op: OpFlash, Partition: "vbmeta", Image: "vbmeta.img", ApplyVbmeta: true},
		{Op: OpFlash, Partition: "system", Image: "system_other.img", SlotOther: true},
		{Op: OpReboot, Partition: "fastboot"},
		{Op: OpUpdateSuper, Partition: "super", Image: "super_empty.img"},
		{Op: OpFlash, Partition: "product", Image: "product.img"},
		{Op: OpErase, Partition: "userdata", IfWipe: true},
		{Op: OpReboot},
	}, m.Directives)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		line   int
		errMsg string
	}{
		{name: "empty", text: "# nothing\n", line: 1, errMsg: "missing version"},
		{name: "no version", text: "flash boot\n", line: 1, errMsg: `expected "version N"`},
		{name: "future version", text: "version 2\n", line: 1, errMsg: "newer than supported"},
		{name: "bad version", text: "version one\n", line: 1, errMsg: "invalid version"},
		{name: "unknown command", text: "version 1\nflash boot\nsideload ota.zip\n", line: 3, errMsg: `unknown command "sideload"`},
		{name: "flash without partition", text: "version 1\nflash --apply-vbmeta\n", line: 2, errMsg: "flash expects"},
		{name: "flash unknown option", text: "version 1\nflash --force boot\n", line: 2, errMsg: "unknown flash option"},
		{name: "erase without partition", text: "version 1\nerase\n", line: 2, errMsg: "erase expects"},
		{name: "bare if-wipe", text: "version 1\nif-wipe\n", line: 2, errMsg: "if-wipe requires"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "want ParseError, got %T", err)
			assert.Equal(t, tt.line, perr.Line)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseLineTooLong(t *testing.T) {
	text := "version 1\nflash " + strings.Repeat("p", 70*1024) + "\n"

	_, err := Parse(text)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr), "want ParseError, got %T", err)
	assert.Equal(t, 2, perr.Line)
}
