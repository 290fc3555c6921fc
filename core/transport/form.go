package transport

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
)

// Form is a multipart form body. When a *Form is passed to Request, the
// transport leaves Content-Type to the form so the multipart boundary is
// set correctly instead of the default JSON content type.
type Form struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	closed bool
}

// NewForm creates an empty multipart form.
func NewForm() *Form {
	f := &Form{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

// AddField appends a plain text field.
func (f *Form) AddField(name, value string) error {
	if f.closed {
		return errors.New("transport: form already sent")
	}
	return f.writer.WriteField(name, value)
}

// AddFile appends a file part read from r.
func (f *Form) AddFile(field, filename string, r io.Reader) error {
	if f.closed {
		return errors.New("transport: form already sent")
	}
	part, err := f.writer.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, r)
	return err
}

// ContentType returns the multipart content type including the boundary.
func (f *Form) ContentType() string {
	return f.writer.FormDataContentType()
}

// reader finalizes the form and returns the encoded body. A form can be
// sent once.
func (f *Form) reader() (io.Reader, error) {
	if !f.closed {
		if err := f.writer.Close(); err != nil {
			return nil, err
		}
		f.closed = true
	}
	return &f.buf, nil
}
