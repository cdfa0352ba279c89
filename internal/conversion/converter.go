package conversion

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ConvertToGLB converts a 3D model file to GLB with the assimp CLI and
// returns the path to the new file, next to the input.
func ConvertToGLB(ctx context.Context, inputPath string) (string, error) {
	ext := filepath.Ext(inputPath)
	outputPath := strings.TrimSuffix(inputPath, ext) + ".glb"
	if outputPath == inputPath {
		return inputPath, nil
	}

	// glTF 2.0 binary, textures embedded when possible.
	cmd := exec.CommandContext(ctx, "assimp", "export", inputPath, outputPath, "-fglb2", "-embtex")
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", errors.Wrapf(err, "assimp export failed: %s", strings.TrimSpace(string(out)))
	}
	return outputPath, nil
}
