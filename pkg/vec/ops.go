package vec

// V3Add, V3Sub, V3Scale adapt the package-level vector arithmetic to the
// (a,b)->T / (f,v)->T function shapes expected by pkg/smooth's Ops[T] table.
func V3Add(a, b V3) V3          { return Add(a, b) }
func V3Sub(a, b V3) V3          { return Sub(a, b) }
func V3Scale(f float64, v V3) V3 { return Scale(f, v) }

// Mat3Add, Mat3Sub, Mat3Scale are the Mat3 analogues, used to smooth a
// sequence of local coordinate frames (pkg/frame).
func Mat3Add(a, b Mat3) Mat3          { return a.Add(b) }
func Mat3Sub(a, b Mat3) Mat3          { return a.Sub(b) }
func Mat3Scale(f float64, m Mat3) Mat3 { return m.Scale(f) }
