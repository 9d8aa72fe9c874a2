package helper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var unsafeNamespaceChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// GenerateUUID creates a random unique UUID string
func GenerateUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return id.String(), nil
}

// pretty print
func PrettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("Error pretty printing")
		return
	}
	fmt.Println(string(b))
}

// CreateFolder creates path and any missing parents.
func CreateFolder(path string) error {
	return os.MkdirAll(path, 0o755)
}

// SecureFilename strips directories and unsafe characters from an
// uploaded file name.
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeNamespaceChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	return name
}

// Namespace derives the vector store namespace from a file name: the
// sanitised name without its extension.
func Namespace(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Trim(unsafeNamespaceChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return "document"
	}
	return name
}
