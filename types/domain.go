package types

import (
	"fmt"
	"strings"
)

// DomainType tags the reference domain shape of an element or face.
type DomainType uint8

const (
	HYPERCUBE DomainType = iota
	SIMPLEX
)

var (
	DomainNames = map[string]DomainType{
		"hypercube": HYPERCUBE,
		"quad":      HYPERCUBE,
		"hex":       HYPERCUBE,
		"simplex":   SIMPLEX,
		"tri":       SIMPLEX,
		"tet":       SIMPLEX,
	}
	DomainPrintNames = []string{"Hypercube", "Simplex"}
)

func (dt DomainType) Print() (txt string) {
	txt = DomainPrintNames[dt]
	return
}

func NewDomainType(label string) (dt DomainType) {
	var (
		ok  bool
		err error
	)
	label = strings.ToLower(strings.TrimSpace(label))
	if dt, ok = DomainNames[label]; !ok {
		err = fmt.Errorf("unable to use domain type named %s", label)
		panic(err)
	}
	return
}

// BasisType selects the polynomial basis family.
type BasisType uint8

const (
	LAGRANGE BasisType = iota
)

var (
	BasisNames = map[string]BasisType{
		"lagrange": LAGRANGE,
	}
	BasisPrintNames = []string{"Lagrange"}
)

func (bt BasisType) Print() (txt string) {
	txt = BasisPrintNames[bt]
	return
}

func NewBasisType(label string) (bt BasisType) {
	var (
		ok  bool
		err error
	)
	label = strings.ToLower(strings.TrimSpace(label))
	if bt, ok = BasisNames[label]; !ok {
		err = fmt.Errorf("unable to use basis named %s", label)
		panic(err)
	}
	return
}

// QuadratureType selects the quadrature rule family.
type QuadratureType uint8

const (
	GAUSS_LEGENDRE QuadratureType = iota
	GRUNDMANN_MOELLER
)

var (
	QuadratureNames = map[string]QuadratureType{
		"gauss-legendre":    GAUSS_LEGENDRE,
		"gauss":             GAUSS_LEGENDRE,
		"grundmann-moeller": GRUNDMANN_MOELLER,
	}
	QuadraturePrintNames = []string{"Gauss-Legendre", "Grundmann-Moeller"}
)

func (qt QuadratureType) Print() (txt string) {
	txt = QuadraturePrintNames[qt]
	return
}

func NewQuadratureType(label string) (qt QuadratureType) {
	var (
		ok  bool
		err error
	)
	label = strings.ToLower(strings.TrimSpace(label))
	if qt, ok = QuadratureNames[label]; !ok {
		err = fmt.Errorf("unable to use quadrature named %s", label)
		panic(err)
	}
	return
}
