package core

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf 根据扩展名判断文件格式
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Decode reads one document. Unknown keys are an error, so a facet map or a
// record cannot silently grow.
func Decode(r io.Reader, format Format, out interface{}) error {
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(out); err != nil && err != io.EOF {
			return err
		}
		return nil
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

func Encode(w io.Writer, format Format, in interface{}) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(in); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(in)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

func DecodeConfig(r io.Reader, format Format) (Config, error) {
	var c Config
	if err := Decode(r, format, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

func EncodeConfig(w io.Writer, format Format, c Config) error {
	return Encode(w, format, c)
}

// LoadConfig 读取并解析地址簿文件，不做校验
func LoadConfig(path string) (Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	c, err := DecodeConfig(bytes.NewReader(data), format)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return c, nil
}

func SaveConfig(path string, c Config) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := EncodeConfig(&buf, format, c); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
