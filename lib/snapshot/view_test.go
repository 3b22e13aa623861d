package snapshot

import (
	"errors"
	"testing"

	"github.com/gliokit/glio/lib/eq"
	"github.com/gliokit/glio/lib/schema"
)

func TestViewLookup(t *testing.T) {
	s := loadTestSnapshot(t, 0)

	gas, err := s.View("gas")
	if err != nil { t.Fatalf("Couldn't build the gas view: %s", err.Error()) }
	if gas.Alias() != "gas" || gas.Index() != 0 {
		t.Errorf("Expected the gas view to bind alias 'gas' to category " +
			"0, got ('%s', %d).", gas.Alias(), gas.Index())
	}

	_, err = s.View("stars")
	sErr := &schema.SchemaError{ }
	if !errors.As(err, &sErr) {
		t.Errorf("Expected an unknown alias to fail with a SchemaError, " +
			"got %v", err)
	}
}

// TestViewIdentity checks that a view hands out the snapshot's own arrays,
// not copies: the same backing storage, visible from both sides.
func TestViewIdentity(t *testing.T) {
	s := loadTestSnapshot(t, 0)
	gas, err := s.View("gas")
	if err != nil { t.Fatalf("%s", err.Error()) }

	viewRho, err := gas.Get("rho")
	if err != nil { t.Fatalf("%s", err.Error()) }
	blk, err := s.Block("rho")
	if err != nil { t.Fatalf("%s", err.Error()) }

	v, b := viewRho.([]float32), blk[0].([]float32)
	if &v[0] != &b[0] {
		t.Fatalf("Expected the view's array to be the snapshot's array, " +
			"not a copy.")
	}

	// Element-wise mutation through the view is mutation of the snapshot.
	v[0] = 99
	if b[0] != 99 {
		t.Errorf("Expected a write through the view's array to be visible " +
			"in the snapshot's block.")
	}

	// The halo view sees rho as absent; gas sees id as present.
	halo, err := s.View("halo")
	if err != nil { t.Fatalf("%s", err.Error()) }
	haloRho, err := halo.Get("rho")
	if err != nil { t.Fatalf("%s", err.Error()) }
	if haloRho != nil {
		t.Errorf("Expected rho to be absent from the halo view, got %v.",
			haloRho)
	}
}

func TestViewImmutable(t *testing.T) {
	s := loadTestSnapshot(t, 0)
	gas, err := s.View("gas")
	if err != nil { t.Fatalf("%s", err.Error()) }

	err = gas.Set("rho", []float32{1, 2, 3})
	ivErr := &ImmutableViewError{ }
	if !errors.As(err, &ivErr) {
		t.Fatalf("Expected assignment through a view to fail with an " +
			"ImmutableViewError, got %v", err)
	}

	// The refused write changed nothing.
	viewRho, err := gas.Get("rho")
	if err != nil { t.Fatalf("%s", err.Error()) }
	if !eq.Float32s(viewRho.([]float32), testRho) {
		t.Errorf("Expected rho to be unchanged after the refused write, " +
			"got %v.", viewRho)
	}

	// Direct replacement through the snapshot's block list succeeds and is
	// visible through the existing view.
	blk, err := s.Block("rho")
	if err != nil { t.Fatalf("%s", err.Error()) }
	blk[0] = []float32{7, 7, 7}

	viewRho, err = gas.Get("rho")
	if err != nil { t.Fatalf("%s", err.Error()) }
	if !eq.Float32s(viewRho.([]float32), []float32{7, 7, 7}) {
		t.Errorf("Expected the view to see the replaced array, got %v.",
			viewRho)
	}
}

func TestViewFields(t *testing.T) {
	s := loadTestSnapshot(t, 0)
	gas, err := s.View("gas")
	if err != nil { t.Fatalf("%s", err.Error()) }

	if !eq.Strings(gas.Fields(), s.Fields()) {
		t.Errorf("Expected the view to enumerate the same fields as its " +
			"snapshot.")
	}
}
