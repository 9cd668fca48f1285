package oracle

//go:generate go run github.com/dmarkham/enumer -type Network -trimprefix Network -transform lower -yaml -text -output network.gen.go

// Network selects which master key the oracle signs with.
type Network int

const (
	NetworkRegtest Network = iota
	NetworkTestnet
	NetworkMainnet
)

// KeyID returns the oracle key used on the network.
func (n Network) KeyID() KeyID {
	var name string
	switch n {
	case NetworkTestnet:
		name = "test_key_1"
	case NetworkMainnet:
		name = "key_1"
	default:
		name = "dfx_test_key"
	}
	return KeyID{Curve: CurveSecp256k1, Name: name}
}
