package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrArtifactNotFound is returned when no compiled artifact exists for a name.
var ErrArtifactNotFound = errors.New("contract artifact not found")

// Artifact is a compiled contract.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

// Compiler produces deployable artifacts by contract name.
type Compiler interface {
	Compile(name string) (Artifact, error)
}

// Contract names of the bundled token templates.
const (
	ERC20Template   = "ERC20Token"
	ERC721Template  = "ERC721Token"
	ERC1155Template = "ERC1155Token"
)

type artifactFile struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode any             `json:"bytecode"`
}

// DirCompiler reads solc/hardhat style artifacts, <dir>/<Name>.json with an
// "abi" array and a "bytecode" hex string (or {"object": "..."}). Results
// are cached per name.
type DirCompiler struct {
	dir string

	mu    sync.Mutex
	cache map[string]Artifact
}

func NewDirCompiler(dir string) *DirCompiler {
	return &DirCompiler{dir: dir, cache: make(map[string]Artifact)}
}

func (c *DirCompiler) Compile(name string) (Artifact, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return Artifact{}, fmt.Errorf("invalid contract name %q", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if art, ok := c.cache[name]; ok {
		return art, nil
	}

	raw, err := os.ReadFile(filepath.Join(c.dir, name+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Artifact{}, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
		}
		return Artifact{}, fmt.Errorf("read artifact %s: %w", name, err)
	}
	art, err := decodeArtifact(name, raw)
	if err != nil {
		return Artifact{}, err
	}
	c.cache[name] = art
	return art, nil
}

func decodeArtifact(name string, raw []byte) (Artifact, error) {
	var file artifactFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return Artifact{}, fmt.Errorf("decode artifact %s: %w", name, err)
	}
	parsed, err := abi.JSON(strings.NewReader(string(file.ABI)))
	if err != nil {
		return Artifact{}, fmt.Errorf("parse abi of %s: %w", name, err)
	}

	var hexCode string
	switch v := file.Bytecode.(type) {
	case string:
		hexCode = v
	case map[string]any:
		hexCode, _ = v["object"].(string)
	}
	code := common.FromHex(strings.TrimSpace(hexCode))
	if len(code) == 0 {
		return Artifact{}, fmt.Errorf("artifact %s has no bytecode", name)
	}
	return Artifact{Name: name, ABI: parsed, Bytecode: code}, nil
}
