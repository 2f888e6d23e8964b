package extract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// StorageOp is a Greenfield bucket or object operation.
type StorageOp string

const (
	StorageCreateBucket StorageOp = "createBucket"
	StorageListBuckets  StorageOp = "listBuckets"
	StorageListObjects  StorageOp = "listObjects"
	StorageUpload       StorageOp = "uploadObject"
	StorageCreateFolder StorageOp = "createFolder"
	StorageDeleteObject StorageOp = "deleteObject"
	StorageDeleteBucket StorageOp = "deleteBucket"
)

var storageOpPattern = regexp.MustCompile(`(?i)\b(?P<op>create\s+(?:a\s+)?(?:new\s+)?bucket|list\s+(?:all\s+)?(?:my\s+)?buckets|list\s+(?:the\s+)?(?:files|objects)|upload|create\s+(?:a\s+)?(?:new\s+)?folder|delete\s+(?:the\s+)?(?:file|object)|delete\s+(?:the\s+)?bucket)\b`)

var (
	storageBucketPattern = regexp.MustCompile(`(?i)\bbucket\s+(?:named\s+|called\s+)?"?(?P<bucket>[a-z0-9][a-z0-9-]{1,61}[a-z0-9])"?(?:\s|$|\.|,)`)
	storageObjectPattern = regexp.MustCompile(`(?i)\b(?:object|file)\s+(?:named\s+|called\s+)?"(?P<object>[^"]+)"`)
	storageFilePattern   = regexp.MustCompile(`(?i)\b(?:upload|file)\s+"?(?P<file>(?:\.{0,2}/|[A-Za-z]:\\)[^\s"]+)"?`)
	storageFolderPattern = regexp.MustCompile(`(?i)\bfolder\s+(?:named\s+|called\s+)?"?(?P<folder>[A-Za-z0-9._-]+)"?`)
	storageVisPattern    = regexp.MustCompile(`(?i)\b(?P<vis>public|private)\b`)
	bucketNamePattern    = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)
)

var storageOps = map[string]StorageOp{
	"createbucket": StorageCreateBucket,
	"listbuckets":  StorageListBuckets,
	"listobjects":  StorageListObjects,
	"listfiles":    StorageListObjects,
	"upload":       StorageUpload,
	"uploadobject": StorageUpload,
	"createfolder": StorageCreateFolder,
	"deleteobject": StorageDeleteObject,
	"deletefile":   StorageDeleteObject,
	"deletebucket": StorageDeleteBucket,
}

func parseStorageOp(raw string) (StorageOp, bool) {
	var b strings.Builder
	for _, word := range strings.Fields(strings.ToLower(raw)) {
		switch word {
		case "a", "new", "the", "all", "my":
			continue
		}
		b.WriteString(word)
	}
	op, ok := storageOps[b.String()]
	return op, ok
}

// StorageParams describes a Greenfield storage request.
type StorageParams struct {
	Op         StorageOp
	Bucket     string
	Object     string
	FilePath   string
	Folder     string
	Visibility string
}

// Storage extracts Greenfield storage parameters from src.
func Storage(src Source) (StorageParams, error) {
	opValue := src.Resolve(Field{
		Name:  "operation",
		Keys:  []string{"operation", "action"},
		Rules: []Rule{{Pattern: storageOpPattern, Group: "op"}},
	})
	if !opValue.Found() {
		return StorageParams{}, missing("operation")
	}
	op, ok := parseStorageOp(opValue.Raw)
	if !ok {
		return StorageParams{}, invalid("operation", fmt.Sprintf("unsupported storage operation %q", opValue.Raw))
	}

	bucket := src.Resolve(Field{Name: "bucketName", Keys: []string{"bucketName", "bucket"}, Rules: []Rule{{Pattern: storageBucketPattern, Group: "bucket"}}})
	object := src.Resolve(Field{Name: "objectName", Keys: []string{"objectName", "object"}, Rules: []Rule{{Pattern: storageObjectPattern, Group: "object"}}})
	file := src.Resolve(Field{Name: "filePath", Keys: []string{"filePath", "file"}, Rules: []Rule{{Pattern: storageFilePattern, Group: "file"}}})
	folder := src.Resolve(Field{Name: "folderName", Keys: []string{"folderName", "folder"}, Rules: []Rule{{Pattern: storageFolderPattern, Group: "folder"}}})
	visibility := src.Resolve(Field{
		Name:    "visibility",
		Keys:    []string{"visibility"},
		Default: DefaultVisibility,
		Rules:   []Rule{{Pattern: storageVisPattern, Group: "vis"}},
	})

	params := StorageParams{
		Op:         op,
		Bucket:     lower(bucket.Raw),
		Object:     object.Raw,
		FilePath:   file.Raw,
		Folder:     folder.Raw,
		Visibility: lower(visibility.Raw),
	}
	if params.Visibility != "public" && params.Visibility != "private" {
		return StorageParams{}, invalid("visibility", fmt.Sprintf("unsupported visibility %q", params.Visibility))
	}

	if op != StorageListBuckets {
		if params.Bucket == "" {
			return StorageParams{}, missing("bucketName")
		}
		if !bucketNamePattern.MatchString(params.Bucket) {
			return StorageParams{}, invalid("bucketName", fmt.Sprintf("invalid bucket name %q", params.Bucket))
		}
	}
	switch op {
	case StorageUpload:
		if params.FilePath == "" {
			return StorageParams{}, missing("filePath")
		}
		if params.Object == "" {
			params.Object = filepath.Base(params.FilePath)
		}
	case StorageDeleteObject:
		if params.Object == "" {
			return StorageParams{}, missing("objectName")
		}
	case StorageCreateFolder:
		if params.Folder == "" {
			return StorageParams{}, missing("folderName")
		}
	}
	return params, nil
}
