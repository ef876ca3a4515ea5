// Package display holds the four-digit LED display buffer and pushes it
// to the shift-register chain.
//
// The buffer is four digit bytes followed by one byte of indicator LEDs.
// Writers only touch the buffer; a dirty mask records which registers need
// to be sent, and the driver task sends them.
package display

// NumDigits is the number of seven-segment digits.
const NumDigits = 4

const ledByte = NumDigits

// Buffer is the display contents: digits 0..3 left to right, then LEDs.
type Buffer [NumDigits + 1]byte

// Digit returns the segments of digit pos.
func (b Buffer) Digit(pos int) byte {
	return b[pos]
}

// LEDs returns the indicator LED byte.
func (b Buffer) LEDs() byte {
	return b[ledByte]
}

// Dirty marks which registers changed since the last write.
type Dirty uint8

const (
	DirtyLEDs Dirty = 1 << iota
	DirtyDigits

	DirtyAll = DirtyLEDs | DirtyDigits
)

// Segment bits of a digit byte.
const (
	SegDP byte = 1 << iota
	SegA
	SegB
	SegC
	SegD
	SegE
	SegF
	SegG

	SegAll byte = 0xff
)

// Indicator LED bits. LeftDP1 belongs to the leftmost digit.
const (
	LeftDP4 byte = 1 << iota
	LeftDP3
	LeftDP2
	LeftDP1
	ColonUpper
	ColonLower
	Aux1
	Aux2

	Colon = ColonUpper | ColonLower
)

var leftDP = [NumDigits]byte{LeftDP1, LeftDP2, LeftDP3, LeftDP4}

var glyphs = [16]byte{
	SegA | SegB | SegC | SegD | SegE | SegF,        // 0
	SegB | SegC,                                    // 1
	SegA | SegB | SegD | SegE | SegG,               // 2
	SegA | SegB | SegC | SegD | SegG,               // 3
	SegB | SegC | SegF | SegG,                      // 4
	SegA | SegC | SegD | SegF | SegG,               // 5
	SegA | SegC | SegD | SegE | SegF | SegG,        // 6
	SegA | SegB | SegC,                             // 7
	SegA | SegB | SegC | SegD | SegE | SegF | SegG, // 8
	SegA | SegB | SegC | SegD | SegF | SegG,        // 9
	SegA | SegB | SegC | SegE | SegF | SegG,        // A
	SegC | SegD | SegE | SegF | SegG,               // b
	SegA | SegD | SegE | SegF,                      // C
	SegB | SegC | SegD | SegE | SegG,               // d
	SegA | SegD | SegE | SegF | SegG,               // E
	SegA | SegE | SegF | SegG,                      // F
}

// Glyph returns the segments for hex digit v. Values outside 0..15 are blank.
func Glyph(v int) byte {
	if v < 0 || v >= len(glyphs) {
		return 0
	}
	return glyphs[v]
}

// Display is the shared display buffer. It is not safe for concurrent
// use; all writers and the driver run on the scheduler loop.
type Display struct {
	buf   Buffer
	dirty Dirty
}

// New returns a blank display with every register marked dirty, so the
// first driver pass clears the hardware.
func New() *Display {
	return &Display{dirty: DirtyAll}
}

// Buffer returns a copy of the current contents.
func (d *Display) Buffer() Buffer {
	return d.buf
}

// Dirty returns the pending dirty mask.
func (d *Display) Dirty() Dirty {
	return d.dirty
}

// MarkDirty forces the given registers to be sent on the next write.
func (d *Display) MarkDirty(m Dirty) {
	d.dirty |= m
}

// Take returns the contents and the pending mask, and clears the mask.
func (d *Display) Take() (Buffer, Dirty) {
	m := d.dirty
	d.dirty = 0
	return d.buf, m
}

func (d *Display) setByte(i int, v byte) {
	if d.buf[i] == v {
		return
	}
	d.buf[i] = v
	if i == ledByte {
		d.dirty |= DirtyLEDs
	} else {
		d.dirty |= DirtyDigits
	}
}

// SetDigit shows hex value v on digit pos.
func (d *Display) SetDigit(pos, v int) {
	d.setByte(pos, Glyph(v))
}

// SetPair shows v (0..99) on the two digits starting at pos. With
// blankZero a leading zero is left dark.
func (d *Display) SetPair(pos, v int, blankZero bool) {
	tens := Glyph(v / 10 % 10)
	if blankZero && v < 10 {
		tens = 0
	}
	d.setByte(pos, tens)
	d.setByte(pos+1, Glyph(v%10))
}

// SetNumber shows v on all four digits with leading zeros.
func (d *Display) SetNumber(v int) {
	for pos := NumDigits - 1; pos >= 0; pos-- {
		d.setByte(pos, Glyph(v%10))
		v /= 10
	}
}

// SetLED switches the indicator LEDs in mask on or off.
func (d *Display) SetLED(mask byte, on bool) {
	v := d.buf[ledByte] &^ mask
	if on {
		v |= mask
	}
	d.setByte(ledByte, v)
}

// SetColon switches both colon dots.
func (d *Display) SetColon(on bool) {
	d.SetLED(Colon, on)
}

// SetLeftDP switches the decimal point to the left of digit pos.
func (d *Display) SetLeftDP(pos int, on bool) {
	d.SetLED(leftDP[pos], on)
}

// ClearLeftDPs switches off every left decimal point.
func (d *Display) ClearLeftDPs() {
	d.SetLED(LeftDP1|LeftDP2|LeftDP3|LeftDP4, false)
}

// Clear blanks every digit and LED.
func (d *Display) Clear() {
	for i := range d.buf {
		d.setByte(i, 0)
	}
}

// Fill lights every segment and LED.
func (d *Display) Fill() {
	for i := range d.buf {
		d.setByte(i, SegAll)
	}
}
