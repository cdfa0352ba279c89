// Package extraction unpacks uploaded archives that carry a single 3D model
// together with the textures and buffers it references.
package extraction

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
	"github.com/pkg/errors"
)

var (
	ErrNoModel        = errors.New("no 3d model file found in archive")
	ErrMultipleModels = errors.New("multiple model files found in archive")
)

// IsPrimaryModelFile reports whether ext names a 3D model format.
func IsPrimaryModelFile(ext string) bool {
	primary := map[string]bool{
		".fbx": true, ".obj": true, ".dae": true, ".stl": true, ".gltf": true, ".glb": true,
	}
	return primary[strings.ToLower(ext)]
}

// IsResourceFile reports whether ext names a file a model may reference.
func IsResourceFile(ext string) bool {
	resources := map[string]bool{
		".bin": true, ".mtl": true, ".jpg": true, ".jpeg": true, ".png": true,
		".tga": true, ".bmp": true, ".tiff": true, ".exr": true, ".hdr": true,
		".dds": true, ".ktx": true, ".basis": true,
	}
	return resources[strings.ToLower(ext)]
}

// IsArchiveFile reports whether ext names a supported archive.
func IsArchiveFile(ext string) bool {
	archives := map[string]bool{
		".zip": true, ".rar": true, ".7z": true, ".tar": true, ".gz": true,
	}
	return archives[strings.ToLower(ext)]
}

// shouldIgnoreFile skips system files such as macOS resource forks.
func shouldIgnoreFile(filename string) bool {
	if filename == "" || strings.HasPrefix(filename, ".") {
		return true
	}
	return strings.ToLower(filename) == "thumbs.db"
}

// ExtractModel unpacks the model and its resource files from the archive at
// archivePath into a temporary directory. It returns the path of the model
// file and the directory, which the caller removes when done.
func ExtractModel(ctx context.Context, archivePath string) (string, string, error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return "", "", errors.Wrap(err, "opening archive failed")
	}

	destDir, err := os.MkdirTemp("", "extract-*")
	if err != nil {
		return "", "", errors.Wrap(err, "creating extraction directory failed")
	}

	var modelPath string
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || shouldIgnoreFile(d.Name()) {
			return nil
		}

		ext := filepath.Ext(d.Name())
		switch {
		case IsPrimaryModelFile(ext):
			if modelPath != "" {
				return errors.Wrapf(ErrMultipleModels, "%s and %s", filepath.Base(modelPath), d.Name())
			}
		case IsResourceFile(ext):
		default:
			return nil
		}

		destPath := filepath.Join(destDir, filepath.FromSlash(path))
		if err := copyFile(fsys, path, destPath); err != nil {
			return err
		}
		if IsPrimaryModelFile(ext) {
			modelPath = destPath
		}
		return nil
	})
	if err == nil && modelPath == "" {
		err = ErrNoModel
	}
	if err != nil {
		os.RemoveAll(destDir)
		return "", "", err
	}
	return modelPath, destDir, nil
}

func copyFile(fsys fs.FS, path, destPath string) error {
	reader, err := fsys.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s failed", path)
	}
	defer reader.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	outFile, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, reader); err != nil {
		return errors.Wrapf(err, "extracting %s failed", path)
	}
	return nil
}
