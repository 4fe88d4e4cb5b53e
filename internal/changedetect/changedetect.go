// Package changedetect implements recipeforge's source-tree diff: the test
// that decides whether a recipe's build directory is stale and needs to be
// regenerated.
package changedetect

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// Changed reports whether any path under source is absent from build, or
// present in both but differing bytewise. Paths that exist only under build
// (such as a recipe's data/ output directory) never count as a change;
// traversal only ever walks source.
func Changed(source, build string) (bool, error) {
	if _, err := os.Stat(build); err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}

	changed := false

	err := filepath.Walk(source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if changed {
			return filepath.SkipDir
		}

		rel, relErr := filepath.Rel(source, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		buildPath := filepath.Join(build, rel)
		buildInfo, statErr := os.Stat(buildPath)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				changed = true
				return nil
			}
			return statErr
		}

		if info.IsDir() {
			if !buildInfo.IsDir() {
				changed = true
			}
			return nil
		}

		if buildInfo.IsDir() {
			changed = true
			return nil
		}

		equal, cmpErr := filesEqual(path, buildPath)
		if cmpErr != nil {
			return cmpErr
		}
		if !equal {
			changed = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return changed, nil
}

// filesEqual compares two regular files bytewise without loading either
// fully into memory.
func filesEqual(a, b string) (bool, error) {
	aInfo, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	bInfo, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if aInfo.Size() != bInfo.Size() {
		return false, nil
	}

	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()

	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	// Sizes already match, so both readers reach EOF on the same chunk.
	const chunkSize = 64 * 1024
	bufA := make([]byte, chunkSize)
	bufB := make([]byte, chunkSize)

	for {
		na, errA := fa.Read(bufA)
		nb, errB := fb.Read(bufB)
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if errA == io.EOF {
			return true, nil
		}
		if errA != nil {
			return false, errA
		}
		if errB != nil {
			return false, errB
		}
	}
}
