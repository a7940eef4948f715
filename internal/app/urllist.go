package app

import (
	"bufio"
	"github.com/edward-yakop/go-fetch/internal/misc"
	"github.com/pkg/errors"
	"os"
	"strings"
)

// ReadURLList returns the valid URLs of a newline separated list file, in order.
// Lines that are not URLs are dropped silently.
func ReadURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Open URL list ["+path+"] failed")
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	urls := make([]string, 0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if misc.IsURL(line) {
			urls = append(urls, line)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "Read URL list ["+path+"] failed")
	}

	return urls, nil
}
