package misc

import "os"

func IsFileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || os.IsExist(err)
}

// FileSize returns the size of the regular file at path.
// ok is false if path does not exist or is not a regular file.
func FileSize(path string) (size int64, ok bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0, false
	}
	return info.Size(), true
}

func IsRegularFile(path string) bool {
	_, ok := FileSize(path)
	return ok
}
