package eset

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/csimplestring/go-csv/detector"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x78},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType identifies the compression of a payload from its leading
// bytes.
func DetectDataType(head []byte) DataType {
	if len(head) == 0 {
		return DataTypeInvalid
	}

Outer:
	for dt, sig := range byteCodeSigs {
		if len(head) < len(sig) {
			continue
		}
		for position := range sig {
			if head[position] != sig[position] {
				continue Outer
			}
		}
		return dt
	}

	return DataTypeNoCompression
}

// ExpandHome expands ~ to the current user's home folder.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", pfx.Err(err)
	}

	return filepath.Join(usr.HomeDir, path[2:]), nil
}

// ReadAll fetches the full payload at path, which may be local (with ~
// expansion), an http(s) URL, or a gs:// URL, and transparently decompresses
// it. client is only needed for gs:// paths.
func ReadAll(ctx context.Context, path string, client *storage.Client) ([]byte, error) {
	raw, err := fetch(ctx, path, client)
	if err != nil {
		return nil, err
	}

	rdr, err := decompress(raw)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	out, err := ioutil.ReadAll(rdr)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return out, nil
}

func fetch(ctx context.Context, path string, client *storage.Client) ([]byte, error) {
	switch {
	case strings.HasPrefix(path, "gs://"):
		if client == nil {
			return nil, fmt.Errorf("%s: a storage client is required for gs:// paths", path)
		}

		// Detect the bucket and the path to the actual file
		pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
		if len(pathParts) != 2 {
			return nil, fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
		}

		rdr, err := client.Bucket(pathParts[0]).Object(pathParts[1]).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		defer rdr.Close()

		return ioutil.ReadAll(rdr)

	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, pfx.Err(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, pfx.Err(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s: %s", path, resp.Status)
		}

		return ioutil.ReadAll(resp.Body)
	}

	local, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(local)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	return ioutil.ReadAll(f)
}

func decompress(raw []byte) (io.Reader, error) {
	buf := bytes.NewReader(raw)

	switch DetectDataType(raw) {
	case DataTypeGzip:
		return gzip.NewReader(buf)
	case DataTypeZip:
		// Only the first entry of an archive is read.
		zr := zipstream.NewReader(buf)
		if _, err := zr.Next(); err != nil {
			return nil, pfx.Err(err)
		}
		return zr, nil
	case DataTypeBZip2:
		return bzip2.NewReader(buf), nil
	case DataTypeXZ:
		return xz.NewReader(buf, 0)
	case DataTypeZ:
		// A leading 0x78 may also be a plain 'x', and some text (e.g. "x^")
		// even carries a valid zlib header. Only a payload that decodes
		// cleanly is zlib.
		if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			if out, err := ioutil.ReadAll(zr); err == nil {
				return bytes.NewReader(out), nil
			}
		}
	}

	return buf, nil
}

// DetermineDelimiter returns the single most likely rune that would delimit
// the values in payload, assuming a CSV-like file.
func DetermineDelimiter(payload []byte) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(payload), '"')

	// The detector's candidates come back in no particular order, so favor
	// the usual table delimiters when several qualify.
	for _, preferred := range []string{"\t", ",", ";", "|"} {
		for _, v := range delimiters {
			if v == preferred {
				return rune(v[0])
			}
		}
	}

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}
