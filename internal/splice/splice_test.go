package splice

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	startMarker = "// script:  js"
	endMarker   = "// <TILES>"
)

func TestApply(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		doc          string
		start, end   string
		payload      string
		expected     string
		expectedOld  string
		expectedKind Kind
		expectedMark Marker
	}{
		{
			name:        "cartridge scenario",
			doc:         "A\n// script:  js\nOLD\n// <TILES>\nB",
			start:       startMarker,
			end:         endMarker,
			payload:     "NEWCODE",
			expected:    "A\n// script:  js\nNEWCODE\n// <TILES>\nB",
			expectedOld: "\nOLD\n",
		},
		{
			name:        "payload ending in newline is not padded",
			doc:         "A\n// script:  js\nOLD\n// <TILES>\nB",
			start:       startMarker,
			end:         endMarker,
			payload:     "NEWCODE\n",
			expected:    "A\n// script:  js\nNEWCODE\n// <TILES>\nB",
			expectedOld: "\nOLD\n",
		},
		{
			name:        "empty region",
			doc:         "[start][end]",
			start:       "[start]",
			end:         "[end]",
			payload:     "x",
			expected:    "[start]\nx\n[end]",
			expectedOld: "",
		},
		{
			name:        "end marker before start is ignored",
			doc:         "[end] head [start] body [end] tail",
			start:       "[start]",
			end:         "[end]",
			payload:     "P",
			expected:    "[end] head [start]\nP\n[end] tail",
			expectedOld: " body ",
		},
		{
			name:        "identical markers never match at the same position",
			doc:         "--\nold\n--\nrest",
			start:       "--",
			end:         "--",
			payload:     "new",
			expected:    "--\nnew\n--\nrest",
			expectedOld: "\nold\n",
		},
		{
			name:        "overlapping markers",
			doc:         "aaa body aa",
			start:       "aa",
			end:         "aa",
			payload:     "P",
			expected:    "aa\nP\naa",
			expectedOld: "a body ",
		},
		{
			name:        "only the first region is replaced",
			doc:         "S1E S2E",
			start:       "S",
			end:         "E",
			payload:     "x",
			expected:    "S\nx\nE S2E",
			expectedOld: "1",
		},
		{
			name:         "missing start marker",
			doc:          "no markers here // <TILES>",
			start:        startMarker,
			end:          endMarker,
			payload:      "x",
			expectedKind: KindMarkerNotFound,
			expectedMark: MarkerStart,
		},
		{
			name:         "end marker only before start",
			doc:          "// <TILES>\n// script:  js\ncode",
			start:        startMarker,
			end:          endMarker,
			payload:      "x",
			expectedKind: KindMarkerNotFound,
			expectedMark: MarkerEnd,
		},
		{
			name:         "single identical marker",
			doc:          "-- only one",
			start:        "--",
			end:          "--",
			payload:      "x",
			expectedKind: KindMarkerNotFound,
			expectedMark: MarkerEnd,
		},
		{
			name:         "empty start marker",
			doc:          "anything",
			start:        "",
			end:          "x",
			expectedKind: KindMarkerNotFound,
			expectedMark: MarkerStart,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, old, err := Apply(tc.doc, tc.start, tc.end, tc.payload)
			if tc.expectedKind != 0 {
				require.Error(t, err)
				var spliceErr *Error
				require.True(t, errors.As(err, &spliceErr))
				assert.Equal(t, tc.expectedKind, spliceErr.Kind)
				assert.Equal(t, tc.expectedMark, spliceErr.Which)
				assert.ErrorIs(t, err, ErrMarkerNotFound)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tc.expectedOld, old)
		})
	}
}

func TestApply_PreservesOutsideRegion(t *testing.T) {
	t.Parallel()

	docs := []string{
		"A\n// script:  js\nOLD\n// <TILES>\nB",
		"// script:  js// <TILES>",
		"prefix\x00bytes\n// script:  js\n\n\n// <TILES>\n-- 000:00112233\n",
		"ünïcødé\n// script:  js\nfunction TIC(){}\n// <TILES>\n// <SPRITES>\n",
	}
	payloads := []string{"", "x", "line1\nline2\n", "contains // script:  js twice"}

	for _, doc := range docs {
		for _, payload := range payloads {
			got, _, err := Apply(doc, startMarker, endMarker, payload)
			require.NoError(t, err)

			startIdx := strings.Index(doc, startMarker) + len(startMarker)
			endIdx := startIdx + strings.Index(doc[startIdx:], endMarker)

			assert.True(t, strings.HasPrefix(got, doc[:startIdx]), "head must be byte-identical")
			assert.True(t, strings.HasSuffix(got, doc[endIdx:]), "tail must be byte-identical")
		}
	}
}

func TestApply_SecondSpliceEqualsSingleSplice(t *testing.T) {
	t.Parallel()

	doc := "A\n// script:  js\nOLD\n// <TILES>\nB"
	for _, p1 := range []string{"", "first", "first\n", "multi\nline\npayload"} {
		for _, p2 := range []string{"", "second", "second\n"} {
			once, _, err := Apply(doc, startMarker, endMarker, p1)
			require.NoError(t, err)
			twice, _, err := Apply(once, startMarker, endMarker, p2)
			require.NoError(t, err)
			direct, _, err := Apply(doc, startMarker, endMarker, p2)
			require.NoError(t, err)

			if diff := cmp.Diff(direct, twice); diff != "" {
				t.Errorf("splice(splice(doc, %q), %q) != splice(doc, %q) (-want +got):\n%s", p1, p2, p2, diff)
			}
		}
	}
}

// fixture writes a target document and a payload into a temp dir.
func fixture(t *testing.T, doc, payload string) (target, payloadPath string) {
	t.Helper()
	dir := t.TempDir()
	target = filepath.Join(dir, "jstarget.js")
	payloadPath = filepath.Join(dir, "dist", "cart.js")
	require.NoError(t, os.WriteFile(target, []byte(doc), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(payloadPath), 0o755))
	require.NoError(t, os.WriteFile(payloadPath, []byte(payload), 0o644))
	return target, payloadPath
}

func request(target, payload string, atomic bool) Request {
	return Request{
		TargetPath:   target,
		PayloadPath:  payload,
		StartMarker:  startMarker,
		EndMarker:    endMarker,
		BackupSuffix: ".bak",
		Atomic:       atomic,
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestSplice_PatchesTargetAndWritesBackup(t *testing.T) {
	t.Parallel()

	const doc = "A\n// script:  js\nOLD\n// <TILES>\nB"
	const want = "A\n// script:  js\nNEWCODE\n// <TILES>\nB"

	for _, atomic := range []bool{true, false} {
		target, payload := fixture(t, doc, "NEWCODE")

		res, err := Splice(context.Background(), request(target, payload, atomic))
		require.NoError(t, err)

		assert.Equal(t, target, res.TargetPath)
		assert.Equal(t, target+".bak", res.BackupPath)
		assert.Equal(t, "\nOLD\n", res.Replaced)
		assert.Equal(t, len("NEWCODE"), res.PayloadBytes)
		assert.Equal(t, want, readFile(t, target))
		assert.Equal(t, doc, readFile(t, res.BackupPath))
	}

	// A symlinked target is patched through the link in both modes.
	for _, atomic := range []bool{true, false} {
		cart, payload := fixture(t, doc, "NEWCODE")
		link := filepath.Join(t.TempDir(), "jstarget.js")
		require.NoError(t, os.Symlink(cart, link))

		res, err := Splice(context.Background(), request(link, payload, atomic))
		require.NoError(t, err, "atomic=%v", atomic)

		info, err := os.Lstat(link)
		require.NoError(t, err)
		assert.True(t, info.Mode()&fs.ModeSymlink != 0, "atomic=%v: link must stay a symlink", atomic)
		assert.Equal(t, want, readFile(t, cart), "atomic=%v", atomic)
		assert.Equal(t, link+".bak", res.BackupPath)
		assert.Equal(t, doc, readFile(t, res.BackupPath))
	}
}

func TestSplice_BackupHoldsStateBeforeLatestRun(t *testing.T) {
	t.Parallel()

	doc := "A\n// script:  js\nOLD\n// <TILES>\nB"
	target, payload := fixture(t, doc, "FIRST")
	req := request(target, payload, true)

	_, err := Splice(context.Background(), req)
	require.NoError(t, err)
	afterFirst := readFile(t, target)

	require.NoError(t, os.WriteFile(payload, []byte("SECOND"), 0o644))
	res, err := Splice(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, afterFirst, readFile(t, res.BackupPath), "backup is last-run-only")
	assert.Equal(t, "A\n// script:  js\nSECOND\n// <TILES>\nB", readFile(t, target))
}

func TestSplice_FailuresLeaveTargetUntouched(t *testing.T) {
	t.Parallel()

	const doc = "A\n// script:  js\nOLD\n// <TILES>\nB"

	testCases := []struct {
		name     string
		setup    func(t *testing.T) Request
		sentinel error
	}{
		{
			name: "missing payload",
			setup: func(t *testing.T) Request {
				target, payload := fixture(t, doc, "x")
				require.NoError(t, os.Remove(payload))
				return request(target, payload, true)
			},
			sentinel: ErrMissingInput,
		},
		{
			name: "missing start marker",
			setup: func(t *testing.T) Request {
				target, payload := fixture(t, "A\nOLD\n// <TILES>\nB", "x")
				return request(target, payload, true)
			},
			sentinel: ErrMarkerNotFound,
		},
		{
			name: "missing end marker",
			setup: func(t *testing.T) Request {
				target, payload := fixture(t, "A\n// script:  js\nOLD\nB", "x")
				return request(target, payload, true)
			},
			sentinel: ErrMarkerNotFound,
		},
		{
			name: "backup path is a directory",
			setup: func(t *testing.T) Request {
				target, payload := fixture(t, doc, "x")
				require.NoError(t, os.Mkdir(target+".bak", 0o755))
				return request(target, payload, true)
			},
			sentinel: ErrBackupWriteFailed,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := tc.setup(t)
			before := readFile(t, req.TargetPath)

			res, err := Splice(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tc.sentinel)
			assert.Equal(t, before, readFile(t, req.TargetPath))

			if tc.sentinel != ErrBackupWriteFailed {
				_, statErr := os.Stat(req.TargetPath + ".bak")
				assert.True(t, os.IsNotExist(statErr), "no backup on pre-backup failures")
			}
		})
	}
}

func TestSplice_TargetWriteFailure(t *testing.T) {
	t.Parallel()

	const doc = "A\n// script:  js\nOLD\n// <TILES>\nB"
	diskFull := errors.New("no space left on device")

	for _, atomic := range []bool{true, false} {
		target, payload := fixture(t, doc, "NEWCODE")
		resolved, err := filepath.EvalSymlinks(target)
		require.NoError(t, err)
		failTarget := func(next writeFunc) writeFunc {
			return func(path string, data []byte, perm fs.FileMode) error {
				if path == resolved {
					return diskFull
				}
				return next(path, data, perm)
			}
		}
		w := writers{
			inPlace: failTarget(osWriters.inPlace),
			replace: failTarget(osWriters.replace),
		}

		res, err := splice(context.Background(), request(target, payload, atomic), w)
		require.Error(t, err, "atomic=%v", atomic)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrTargetWriteFailed)
		assert.ErrorIs(t, err, diskFull)
		assert.Equal(t, doc, readFile(t, target), "atomic=%v: target must stay unpatched", atomic)
		assert.Equal(t, doc, readFile(t, target+".bak"), "atomic=%v: backup holds the original", atomic)
	}
}

func TestSplice_ReadOnlyTarget(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for this user")
	}

	const doc = "A\n// script:  js\nOLD\n// <TILES>\nB"
	target, payload := fixture(t, doc, "NEWCODE")
	require.NoError(t, os.Chmod(target, 0o444))

	_, err := Splice(context.Background(), request(target, payload, false))
	require.ErrorIs(t, err, ErrTargetWriteFailed)
	assert.Equal(t, doc, readFile(t, target))
	assert.Equal(t, doc, readFile(t, target+".bak"))
}

func TestSplice_MissingTarget(t *testing.T) {
	t.Parallel()

	target, payload := fixture(t, "irrelevant", "x")
	require.NoError(t, os.Remove(target))

	_, err := Splice(context.Background(), request(target, payload, true))
	require.ErrorIs(t, err, ErrMissingTarget)
	assert.Contains(t, err.Error(), "target not found")

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr), "splice must not create the target")
}

func TestError_Messages(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	testCases := []struct {
		err      *Error
		contains string
		sentinel error
	}{
		{&Error{Kind: KindMissingInput, Path: "dist/cart.js"}, "run the build first", ErrMissingInput},
		{&Error{Kind: KindMarkerNotFound, Which: MarkerStart, Literal: startMarker}, "start marker not found", ErrMarkerNotFound},
		{&Error{Kind: KindMarkerNotFound, Which: MarkerEnd, Literal: endMarker}, "end marker not found after start", ErrMarkerNotFound},
		{&Error{Kind: KindBackupWriteFailed, Path: "t.bak", Err: cause}, "write backup t.bak", ErrBackupWriteFailed},
		{&Error{Kind: KindTargetWriteFailed, Path: "t", Err: cause}, "write target t", ErrTargetWriteFailed},
	}

	for _, tc := range testCases {
		assert.Contains(t, tc.err.Error(), tc.contains)
		assert.ErrorIs(t, tc.err, tc.sentinel)
		if tc.err.Err != nil {
			assert.ErrorIs(t, tc.err, cause)
		}
	}
}
