package boxed

// noCopy lets go vet's copylocks check flag copies of a Box.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
