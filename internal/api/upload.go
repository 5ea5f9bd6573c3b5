// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"io"
	"mime"
	"mime/multipart"

	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

// sniffLen is the number of leading bytes filetype needs to match a format.
const sniffLen = 261

// formFile adapts an uploaded multipart file to session.Source.
type formFile struct {
	header   *multipart.FileHeader
	mimeType string
}

func newFormFile(header *multipart.FileHeader) *formFile {
	return &formFile{header: header, mimeType: detectMIMEType(header)}
}

func (f *formFile) Name() string     { return f.header.Filename }
func (f *formFile) MIMEType() string { return f.mimeType }
func (f *formFile) Size() int64      { return f.header.Size }

func (f *formFile) Open() (io.ReadCloser, error) {
	return f.header.Open()
}

// detectMIMEType returns the declared content type of the part, or the type
// sniffed from its first bytes when the browser sent none or a generic one.
func detectMIMEType(header *multipart.FileHeader) string {
	declared := header.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
		return mediaType
	}
	if header.Size > model.MaxUploadBytes {
		return declared
	}
	file, err := header.Open()
	if err != nil {
		return declared
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(file, head)
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return declared
	}
	return kind.MIME.Value
}
