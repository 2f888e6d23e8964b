package signer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/greenfield"

	storageTypes "github.com/bnb-chain/greenfield/x/storage/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	providers     []string
	providerCalls int
	calls         []string

	bucketSP   string
	visibility storageTypes.VisibilityType
	created    []byte
	uploaded   []byte
	uploadHash string
	folder     string

	waitErr   error
	deleteErr error
}

func (f *fakeChain) PrimaryProviders(context.Context) ([]string, error) {
	f.providerCalls++
	return f.providers, nil
}

func (f *fakeChain) CreateBucket(_ context.Context, _, sp string, vis storageTypes.VisibilityType) (string, error) {
	f.calls = append(f.calls, "create-bucket")
	f.bucketSP, f.visibility = sp, vis
	return "0xbucket", nil
}

func (f *fakeChain) CreateObject(_ context.Context, _, _ string, body io.Reader, vis storageTypes.VisibilityType) (string, error) {
	f.calls = append(f.calls, "create-object")
	f.visibility = vis
	f.created, _ = io.ReadAll(body)
	return "0xobject", nil
}

func (f *fakeChain) WaitForTx(context.Context, string) error {
	f.calls = append(f.calls, "wait")
	return f.waitErr
}

func (f *fakeChain) UploadObject(_ context.Context, _, _, txHash string, _ int64, body io.Reader) error {
	f.calls = append(f.calls, "upload")
	f.uploadHash = txHash
	f.uploaded, _ = io.ReadAll(body)
	return nil
}

func (f *fakeChain) CreateFolder(_ context.Context, _, folder string) (string, error) {
	f.folder = folder
	return "0xfolder", nil
}

func (f *fakeChain) DeleteObject(context.Context, string, string) (string, error) {
	return "0xdelobj", f.deleteErr
}

func (f *fakeChain) DeleteBucket(context.Context, string) (string, error) {
	return "0xdelbucket", f.deleteErr
}

func TestSignerSatisfiesSubmitter(t *testing.T) {
	var sub greenfield.Submitter = newSigner(&fakeChain{}, "")
	assert.NotNil(t, sub)
}

func TestCreateBucketResolvesPrimaryProviderOnce(t *testing.T) {
	fc := &fakeChain{providers: []string{"0xsp1", "0xsp2"}}
	s := newSigner(fc, "")

	hash, err := s.CreateBucket(context.Background(), "photos", "public")
	require.NoError(t, err)
	assert.Equal(t, "0xbucket", hash)
	assert.Equal(t, "0xsp1", fc.bucketSP)
	assert.Equal(t, storageTypes.VISIBILITY_TYPE_PUBLIC_READ, fc.visibility)

	_, err = s.CreateBucket(context.Background(), "docs", "private")
	require.NoError(t, err)
	assert.Equal(t, storageTypes.VISIBILITY_TYPE_PRIVATE, fc.visibility)
	assert.Equal(t, 1, fc.providerCalls)
}

func TestCreateBucketUsesPinnedProvider(t *testing.T) {
	fc := &fakeChain{}
	s := newSigner(fc, "0xpinned")

	_, err := s.CreateBucket(context.Background(), "photos", "private")
	require.NoError(t, err)
	assert.Equal(t, "0xpinned", fc.bucketSP)
	assert.Zero(t, fc.providerCalls)
}

func TestCreateBucketWithoutProvidersFails(t *testing.T) {
	s := newSigner(&fakeChain{}, "")
	_, err := s.CreateBucket(context.Background(), "photos", "public")
	assert.Equal(t, xerrors.CodeStorageFailure, xerrors.CodeOf(err))
}

func TestUnsupportedVisibility(t *testing.T) {
	s := newSigner(&fakeChain{providers: []string{"0xsp"}}, "")
	_, err := s.CreateBucket(context.Background(), "photos", "world")
	assert.Equal(t, xerrors.CodeValidationFailed, xerrors.CodeOf(err))
}

func TestPutObjectCreatesWaitsThenUploads(t *testing.T) {
	fc := &fakeChain{}
	s := newSigner(fc, "")

	hash, err := s.PutObject(context.Background(), "photos", "cat.txt", strings.NewReader("meow"), 4, "private")
	require.NoError(t, err)
	assert.Equal(t, "0xobject", hash)
	assert.Equal(t, []string{"create-object", "wait", "upload"}, fc.calls)
	assert.Equal(t, "meow", string(fc.created))
	assert.Equal(t, "meow", string(fc.uploaded))
	assert.Equal(t, "0xobject", fc.uploadHash)
}

func TestPutObjectSizeMismatch(t *testing.T) {
	fc := &fakeChain{}
	_, err := newSigner(fc, "").PutObject(context.Background(), "photos", "cat.txt", strings.NewReader("meow"), 10, "private")
	assert.Equal(t, xerrors.CodeValidationFailed, xerrors.CodeOf(err))
	assert.Empty(t, fc.calls)
}

func TestPutObjectUnconfirmedKeepsHash(t *testing.T) {
	fc := &fakeChain{waitErr: errors.New("tx not found")}
	hash, err := newSigner(fc, "").PutObject(context.Background(), "photos", "cat.txt", strings.NewReader("meow"), 4, "public")
	assert.Equal(t, "0xobject", hash)
	assert.Equal(t, xerrors.CodeConfirmationUnknown, xerrors.CodeOf(err))
	assert.Equal(t, []string{"create-object", "wait"}, fc.calls)
}

func TestCreateFolderAddsSlash(t *testing.T) {
	fc := &fakeChain{}
	_, err := newSigner(fc, "").CreateFolder(context.Background(), "photos", "2024")
	require.NoError(t, err)
	assert.Equal(t, "2024/", fc.folder)
}

func TestDeleteFailuresAreSubmissionErrors(t *testing.T) {
	fc := &fakeChain{deleteErr: errors.New("no such bucket")}
	s := newSigner(fc, "")

	_, err := s.DeleteObject(context.Background(), "photos", "cat.txt")
	assert.Equal(t, xerrors.CodeSubmissionFailed, xerrors.CodeOf(err))
	_, err = s.DeleteBucket(context.Background(), "photos")
	assert.Equal(t, xerrors.CodeSubmissionFailed, xerrors.CodeOf(err))
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{PrivateKey: "  "})
	assert.Equal(t, xerrors.CodeInitializationFailure, xerrors.CodeOf(err))
}
