package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

type memoryObject struct {
	Object
	parent string
	data   []byte
	shared bool
}

// Memory is an in-process Store used for dry runs and tests.
type Memory struct {
	mu      sync.Mutex
	seq     int
	objects map[string]*memoryObject
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]*memoryObject)}
}

func (m *Memory) EnsureFolder(ctx context.Context, name, parentID string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	safe := SanitizeName(name)
	if o := m.find(safe, parentID, true); o != nil {
		obj := o.Object
		return &obj, nil
	}
	o := m.create(safe, parentID, FolderMimeType, nil)
	obj := o.Object
	return &obj, nil
}

func (m *Memory) PutFile(ctx context.Context, folderID, name, mimeType string, body io.Reader) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	safe := SanitizeName(name)
	if o := m.find(safe, folderID, false); o != nil {
		o.data = data
		o.MimeType = mimeType
		obj := o.Object
		return &obj, nil
	}
	o := m.create(safe, folderID, mimeType, data)
	obj := o.Object
	return &obj, nil
}

func (m *Memory) ShareByLink(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[id]
	if !ok {
		return fmt.Errorf("share %s: %w", id, ErrNotFound)
	}
	o.shared = true
	return nil
}

// Read returns the content of a stored file.
func (m *Memory) Read(id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[id]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", id, ErrNotFound)
	}
	return append([]byte(nil), o.data...), nil
}

// Children lists the objects directly under parentID.
func (m *Memory) Children(parentID string) []Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Object
	for i := 1; i <= m.seq; i++ {
		if o, ok := m.objects[memoryID(i)]; ok && o.parent == parentID {
			out = append(out, o.Object)
		}
	}
	return out
}

func (m *Memory) Shared(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[id]
	return ok && o.shared
}

func (m *Memory) find(name, parent string, folder bool) *memoryObject {
	for _, o := range m.objects {
		if o.parent == parent && o.Name == name && (o.MimeType == FolderMimeType) == folder {
			return o
		}
	}
	return nil
}

func (m *Memory) create(name, parent, mimeType string, data []byte) *memoryObject {
	m.seq++
	id := memoryID(m.seq)
	o := &memoryObject{
		Object: Object{ID: id, Name: name, Link: "memory://" + id, MimeType: mimeType},
		parent: parent,
		data:   data,
	}
	m.objects[id] = o
	return o
}

func memoryID(n int) string {
	return fmt.Sprintf("mem-%d", n)
}
