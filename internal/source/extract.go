package source

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// extractArchive unpacks a GitHub source tarball into dest. The tarball wraps
// everything in a single <owner>-<name>-<sha> directory, which is stripped.
// Returns the commit recorded in the archive's pax header, falling back to
// the short revision in the top directory name.
func extractArchive(archivePath, dest string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("read archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	destRoot := filepath.Clean(dest) + string(os.PathSeparator)
	revision := ""
	topDir := ""

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			if sha := hdr.PAXRecords["comment"]; sha != "" {
				revision = sha
			}
			continue
		}

		name := path.Clean(hdr.Name)
		// After Clean, any remaining ".." segments sit at the front.
		if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
			return "", fmt.Errorf("archive entry escapes destination: %s", hdr.Name)
		}
		top, rest, _ := strings.Cut(name, "/")
		if topDir == "" {
			topDir = top
		}
		if rest == "" || rest == "." {
			continue
		}

		target := filepath.Join(dest, filepath.FromSlash(rest))
		if !strings.HasPrefix(target, destRoot) {
			return "", fmt.Errorf("archive entry escapes destination: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", fmt.Errorf("create dir %s: %w", rest, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, hdr, tr); err != nil {
				return "", err
			}
		case tar.TypeSymlink:
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return "", fmt.Errorf("create symlink %s: %w", rest, err)
			}
		}
	}

	if topDir == "" {
		return "", fmt.Errorf("archive is empty")
	}
	if revision == "" {
		if idx := strings.LastIndex(topDir, "-"); idx >= 0 {
			revision = topDir[idx+1:]
		} else {
			revision = topDir
		}
	}
	return revision, nil
}

func writeEntry(target string, hdr *tar.Header, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", hdr.Name, err)
	}
	mode := os.FileMode(hdr.Mode) & 0o777
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file %s: %w", hdr.Name, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write file %s: %w", hdr.Name, err)
	}
	return out.Close()
}
