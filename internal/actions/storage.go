package actions

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/extract"
	"BNBChain-Agent/pkg/plugin"
)

// Storage manages Greenfield buckets and objects.
type Storage struct {
	env *Env
	log *slog.Logger
}

type storageHandler func(a *Storage, ctx context.Context, p extract.StorageParams, content map[string]any) (string, error)

var storageHandlers = map[extract.StorageOp]storageHandler{
	extract.StorageCreateBucket: (*Storage).createBucket,
	extract.StorageListBuckets:  (*Storage).listBuckets,
	extract.StorageListObjects:  (*Storage).listObjects,
	extract.StorageUpload:       (*Storage).upload,
	extract.StorageCreateFolder: (*Storage).createFolder,
	extract.StorageDeleteObject: (*Storage).deleteObject,
	extract.StorageDeleteBucket: (*Storage).deleteBucket,
}

func NewStorage(env *Env) *Storage {
	return &Storage{env: env, log: env.logger().With(slog.String("action", NameStorage))}
}

func (a *Storage) Info() plugin.Info {
	return plugin.Info{
		Name:        NameStorage,
		Description: "Manage BNB Greenfield storage: create, list and delete buckets; upload, list and delete objects; create folders.",
		Similes:     []string{"GREENFIELD", "BUCKET", "UPLOAD_FILE"},
		Examples: []plugin.Example{
			{User: "Create a bucket named photos", Agent: "Created bucket photos."},
			{User: "List my buckets", Agent: "You have 2 buckets: photos, docs."},
		},
		Capabilities: []plugin.Capability{plugin.CapabilityNetwork, plugin.CapabilitySigning, plugin.CapabilityFilesystem},
	}
}

func (a *Storage) Handle(ctx context.Context, msg plugin.Message) plugin.Result {
	params, err := extract.Storage(a.env.source(ctx, NameStorage, msg))
	if err != nil {
		return failure(ctx, a.log, NameStorage, err, nil)
	}
	content := map[string]any{"operation": string(params.Op)}
	if params.Bucket != "" {
		content["bucket"] = params.Bucket
	}
	if a.env.Storage == nil {
		return failure(ctx, a.log, NameStorage, xerrors.New(xerrors.CodeInitializationFailure, "no Greenfield client configured"), content)
	}
	handle, ok := storageHandlers[params.Op]
	if !ok {
		return failure(ctx, a.log, NameStorage, xerrors.New(xerrors.CodeValidationFailed, fmt.Sprintf("unsupported storage operation %q", params.Op)), content)
	}
	text, err := handle(a, ctx, params, content)
	if err != nil {
		return failure(ctx, a.log, NameStorage, err, content)
	}
	return success(text, content)
}

func (a *Storage) submitted(content map[string]any, hash string) {
	content["hash"] = hash
	content["explorerUrl"] = a.env.Storage.Explorer(hash)
}

func (a *Storage) createBucket(ctx context.Context, p extract.StorageParams, content map[string]any) (string, error) {
	hash, err := a.env.Storage.CreateBucket(ctx, p.Bucket, p.Visibility)
	if err != nil {
		return "", err
	}
	a.submitted(content, hash)
	content["visibility"] = p.Visibility
	return fmt.Sprintf("Created %s bucket %s.", p.Visibility, p.Bucket), nil
}

func (a *Storage) listBuckets(ctx context.Context, _ extract.StorageParams, content map[string]any) (string, error) {
	buckets, err := a.env.Storage.ListBuckets(ctx, a.env.Provider.Address())
	if err != nil {
		return "", err
	}
	content["buckets"] = buckets
	if len(buckets) == 0 {
		return "No buckets found.", nil
	}
	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, b.Name)
	}
	return fmt.Sprintf("Found %d bucket(s): %s.", len(buckets), joinNames(names)), nil
}

func (a *Storage) listObjects(ctx context.Context, p extract.StorageParams, content map[string]any) (string, error) {
	objects, err := a.env.Storage.ListObjects(ctx, p.Bucket, a.env.Provider.Address())
	if err != nil {
		return "", err
	}
	content["objects"] = objects
	if len(objects) == 0 {
		return fmt.Sprintf("Bucket %s is empty.", p.Bucket), nil
	}
	names := make([]string, 0, len(objects))
	for _, o := range objects {
		names = append(names, o.Name)
	}
	return fmt.Sprintf("Bucket %s has %d object(s): %s.", p.Bucket, len(objects), joinNames(names)), nil
}

func (a *Storage) upload(ctx context.Context, p extract.StorageParams, content map[string]any) (string, error) {
	file, err := os.Open(p.FilePath)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeValidationFailed, err, "open file", xerrors.WithMetadata("field", "filePath"))
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeValidationFailed, err, "stat file", xerrors.WithMetadata("field", "filePath"))
	}
	if info.IsDir() {
		return "", xerrors.New(xerrors.CodeValidationFailed, p.FilePath+" is a directory", xerrors.WithMetadata("field", "filePath"))
	}
	hash, err := a.env.Storage.PutObject(ctx, p.Bucket, p.Object, file, info.Size(), p.Visibility)
	if err != nil {
		return "", err
	}
	a.submitted(content, hash)
	content["object"] = p.Object
	content["size"] = info.Size()
	return fmt.Sprintf("Uploaded %s to %s/%s.", p.FilePath, p.Bucket, p.Object), nil
}

func (a *Storage) createFolder(ctx context.Context, p extract.StorageParams, content map[string]any) (string, error) {
	hash, err := a.env.Storage.CreateFolder(ctx, p.Bucket, p.Folder)
	if err != nil {
		return "", err
	}
	a.submitted(content, hash)
	content["folder"] = p.Folder
	return fmt.Sprintf("Created folder %s in %s.", p.Folder, p.Bucket), nil
}

func (a *Storage) deleteObject(ctx context.Context, p extract.StorageParams, content map[string]any) (string, error) {
	hash, err := a.env.Storage.DeleteObject(ctx, p.Bucket, p.Object)
	if err != nil {
		return "", err
	}
	a.submitted(content, hash)
	content["object"] = p.Object
	return fmt.Sprintf("Deleted %s from %s.", p.Object, p.Bucket), nil
}

func (a *Storage) deleteBucket(ctx context.Context, p extract.StorageParams, content map[string]any) (string, error) {
	hash, err := a.env.Storage.DeleteBucket(ctx, p.Bucket)
	if err != nil {
		return "", err
	}
	a.submitted(content, hash)
	return fmt.Sprintf("Deleted bucket %s.", p.Bucket), nil
}

func joinNames(names []string) string {
	const shown = 10
	if len(names) <= shown {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:shown], ", ") + fmt.Sprintf(" and %d more", len(names)-shown)
}
