package fs

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrChecksum reports a media file whose md5 differs from the declared one.
var ErrChecksum = errors.New("media checksum mismatch")

// verifyMedia checks that src is a readable regular file and, when a
// checksum is given, that its md5 matches.
func verifyMedia(src, checksum string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open media: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("media is not a regular file: %s", src)
	}
	if checksum == "" {
		return nil
	}

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to hash media: %w", err)
	}
	if got := hex.EncodeToString(h.Sum(nil)); !strings.EqualFold(got, strings.TrimSpace(checksum)) {
		return fmt.Errorf("%w: %s has %s, expected %s", ErrChecksum, src, got, checksum)
	}
	return nil
}
