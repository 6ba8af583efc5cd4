package vec

// noCopy lets go vet's copylocks check flag copies of a Vec.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
