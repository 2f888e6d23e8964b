package greenfield

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// Shape is a known storage provider listing format.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeGfSpBuckets
	ShapeS3Buckets
	ShapeGfSpObjects
	ShapeS3Objects
)

func (s Shape) String() string {
	switch s {
	case ShapeGfSpBuckets:
		return "gfsp-buckets"
	case ShapeS3Buckets:
		return "s3-buckets"
	case ShapeGfSpObjects:
		return "gfsp-objects"
	case ShapeS3Objects:
		return "s3-objects"
	default:
		return "unknown"
	}
}

var rootShapes = map[string]Shape{
	"GfSpGetUserBucketsResponse":          ShapeGfSpBuckets,
	"ListBucketsResult":                   ShapeS3Buckets,
	"ListAllMyBucketsResult":              ShapeS3Buckets,
	"GfSpListObjectsByBucketNameResponse": ShapeGfSpObjects,
	"ListBucketResult":                    ShapeS3Objects,
}

// DetectShape classifies raw by its root element.
func DetectShape(raw []byte) Shape {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ShapeUnknown
		}
		if start, ok := tok.(xml.StartElement); ok {
			return rootShapes[start.Name.Local]
		}
	}
}

type gfspBuckets struct {
	Buckets []struct {
		BucketInfo struct {
			BucketName string `xml:"BucketName"`
			Visibility string `xml:"Visibility"`
			Owner      string `xml:"Owner"`
			CreateAt   string `xml:"CreateAt"`
		} `xml:"BucketInfo"`
		Removed bool `xml:"Removed"`
	} `xml:"Buckets"`
}

type s3Buckets struct {
	Buckets []struct {
		Name         string `xml:"Name"`
		CreationDate string `xml:"CreationDate"`
	} `xml:"Buckets>Bucket"`
	Flat []struct {
		Name         string `xml:"Name"`
		CreationDate string `xml:"CreationDate"`
	} `xml:"Bucket"`
}

type gfspObjects struct {
	Objects []struct {
		ObjectInfo struct {
			ObjectName  string `xml:"ObjectName"`
			PayloadSize int64  `xml:"PayloadSize"`
			ContentType string `xml:"ContentType"`
		} `xml:"ObjectInfo"`
		Removed bool `xml:"Removed"`
	} `xml:"Objects"`
}

type s3Objects struct {
	Contents []struct {
		Key  string `xml:"Key"`
		Size int64  `xml:"Size"`
	} `xml:"Contents"`
}

// Bucket is a listed bucket.
type Bucket struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// Object is a listed object.
type Object struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ErrUnknownShape marks a listing no parser recognised.
var ErrUnknownShape = errors.New("unrecognised listing format")

// ParseBuckets decodes a bucket listing of any known shape. An empty or
// unrecognised body yields no buckets together with ErrUnknownShape so the
// caller can log it.
func ParseBuckets(raw []byte) ([]Bucket, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	switch DetectShape(raw) {
	case ShapeGfSpBuckets:
		return parseGfSpBuckets(raw)
	case ShapeS3Buckets:
		return parseS3Buckets(raw)
	default:
		return nil, ErrUnknownShape
	}
}

// ParseObjects decodes an object listing of any known shape.
func ParseObjects(raw []byte) ([]Object, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	switch DetectShape(raw) {
	case ShapeGfSpObjects:
		return parseGfSpObjects(raw)
	case ShapeS3Objects:
		return parseS3Objects(raw)
	default:
		return nil, ErrUnknownShape
	}
}

func decodeXML(raw []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = false
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func parseGfSpBuckets(raw []byte) ([]Bucket, error) {
	var doc gfspBuckets
	if err := decodeXML(raw, &doc); err != nil {
		return nil, err
	}
	out := make([]Bucket, 0, len(doc.Buckets))
	for _, b := range doc.Buckets {
		name := strings.TrimSpace(b.BucketInfo.BucketName)
		if name == "" || b.Removed {
			continue
		}
		out = append(out, Bucket{Name: name, Visibility: visibilityLabel(b.BucketInfo.Visibility), CreatedAt: b.BucketInfo.CreateAt})
	}
	return out, nil
}

func parseS3Buckets(raw []byte) ([]Bucket, error) {
	var doc s3Buckets
	if err := decodeXML(raw, &doc); err != nil {
		return nil, err
	}
	out := make([]Bucket, 0, len(doc.Buckets)+len(doc.Flat))
	for _, b := range append(doc.Buckets, doc.Flat...) {
		if name := strings.TrimSpace(b.Name); name != "" {
			out = append(out, Bucket{Name: name, CreatedAt: b.CreationDate})
		}
	}
	return out, nil
}

func parseGfSpObjects(raw []byte) ([]Object, error) {
	var doc gfspObjects
	if err := decodeXML(raw, &doc); err != nil {
		return nil, err
	}
	out := make([]Object, 0, len(doc.Objects))
	for _, o := range doc.Objects {
		name := strings.TrimSpace(o.ObjectInfo.ObjectName)
		if name == "" || o.Removed {
			continue
		}
		out = append(out, Object{Name: name, Size: o.ObjectInfo.PayloadSize})
	}
	return out, nil
}

func parseS3Objects(raw []byte) ([]Object, error) {
	var doc s3Objects
	if err := decodeXML(raw, &doc); err != nil {
		return nil, err
	}
	out := make([]Object, 0, len(doc.Contents))
	for _, c := range doc.Contents {
		if key := strings.TrimSpace(c.Key); key != "" {
			out = append(out, Object{Name: key, Size: c.Size})
		}
	}
	return out, nil
}

func visibilityLabel(v string) string {
	switch strings.TrimSpace(v) {
	case "1", "VISIBILITY_TYPE_PUBLIC_READ":
		return "public"
	case "2", "VISIBILITY_TYPE_PRIVATE":
		return "private"
	case "3", "VISIBILITY_TYPE_INHERIT":
		return "inherit"
	default:
		return strings.TrimSpace(v)
	}
}
