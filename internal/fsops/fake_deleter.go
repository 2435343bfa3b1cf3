package fsops

// FakeDeleter implements Deleter for testing.
// Records every call and performs no deletion. A path present in Fail
// returns the mapped error instead of being recorded.
type FakeDeleter struct {
	Calls []string
	Fail  map[string]error
}

func (f *FakeDeleter) RemoveFile(path string) error {
	if err, ok := f.Fail[path]; ok {
		return err
	}
	f.Calls = append(f.Calls, "rm:"+path)
	return nil
}

func (f *FakeDeleter) RemoveDir(path string) error {
	if err, ok := f.Fail[path]; ok {
		return err
	}
	f.Calls = append(f.Calls, "rmdir:"+path)
	return nil
}
