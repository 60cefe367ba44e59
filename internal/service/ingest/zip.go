package ingest

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"strings"

	"jacc/internal/config"
)

// extensionMIMETypes maps archive member extensions to the MIME type
// the member re-enters validation with. Members outside this map fail
// the allow-list check like any direct upload.
var extensionMIMETypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".csv":  "text/csv",
	".txt":  "text/plain",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// expandZip reads an archive into its member files. Directories and
// hidden metadata entries are skipped; each member carries a MIME type
// derived from its extension and is validated individually by the
// caller. A corrupt archive returns an error and rejects as one unit.
func expandZip(data []byte) ([]IncomingFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var members []IncomingFile
	for _, member := range reader.File {
		if member.FileInfo().IsDir() {
			continue
		}

		name := path.Base(member.Name)
		if strings.HasPrefix(name, ".") || strings.HasPrefix(member.Name, "__MACOSX/") {
			continue
		}

		content, err := readZipMember(member)
		if err != nil {
			// Unreadable member becomes a per-file rejection downstream
			members = append(members, IncomingFile{Filename: name})
			continue
		}

		members = append(members, IncomingFile{
			Filename: name,
			MimeType: extensionMIMETypes[strings.ToLower(path.Ext(name))],
			Data:     content,
		})
	}

	return members, nil
}

func readZipMember(member *zip.File) ([]byte, error) {
	rc, err := member.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// Cap reads at the per-file ceiling plus one byte so an oversized
	// member is detected without buffering a zip bomb
	limited := io.LimitReader(rc, config.MaxUploadFileSize+1)
	return io.ReadAll(limited)
}
