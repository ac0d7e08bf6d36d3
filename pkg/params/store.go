package params

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
)

// Storage persists the whole table.
type Storage interface {
	Load(*Table) error
	Save(*Table) error
}

// FileStore keeps the table in a protobuf encoded file.
type FileStore struct {
	Path string
}

// File is the on-disk representation of a Table.
type File struct {
	Version uint32    `protobuf:"varint,1,opt,name=version,proto3" json:"version,omitempty"`
	Entries []*Record `protobuf:"bytes,2,rep,name=entries,proto3" json:"entries,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *File) ProtoMessage() {}

// Reset implements proto.Message.
func (m *File) Reset() { *m = File{} }

// String implements proto.Message.
func (m *File) String() string { return proto.CompactTextString(m) }

// Record is a stored parameter.
type Record struct {
	Name  string  `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Value float32 `protobuf:"fixed32,2,opt,name=value,proto3" json:"value,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Record) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Record) Reset() { *m = Record{} }

// String implements proto.Message.
func (m *Record) String() string { return proto.CompactTextString(m) }

const fileVersion = 1

// Load implements Storage. Entries are matched by exact name, unknown names
// and invalid values are skipped and the rest of the table keeps its values.
func (s *FileStore) Load(t *Table) error {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return err
	}
	var f File
	if err := proto.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode %s: %v", s.Path, err)
	}
	for _, rec := range f.Entries {
		i := t.IndexOf(rec.Name)
		if i < 0 {
			glog.Warningf("param %q from %s unknown, skipped", rec.Name, s.Path)
			continue
		}
		if _, err := t.Update(i, rec.Value); err != nil {
			glog.Warningf("param %q from %s: %v", rec.Name, s.Path, err)
		}
	}
	return nil
}

// Save implements Storage.
func (s *FileStore) Save(t *Table) error {
	f := &File{Version: fileVersion, Entries: make([]*Record, 0, t.Len())}
	for i := 0; i < t.Len(); i++ {
		e := t.At(i)
		f.Entries = append(f.Entries, &Record{Name: e.Name.String(), Value: e.Value})
	}
	data, err := proto.Marshal(f)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".params-*")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
