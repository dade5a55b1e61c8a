package vm

// Seed resets the context RNG. A zero seed stores 1: the xorshift
// state must never be zero or the stream sticks at zero.
func (c *Context) Seed(seed uint64) {
	if seed == 0 {
		seed = 1
	}
	c.rngState = seed
}

// RandState returns the generator's current state, for persistence.
// Feeding it back through Seed resumes the stream exactly (the state
// is never zero, so Seed's zero rule cannot distort it).
func (c *Context) RandState() uint64 {
	return c.rngState
}

// Rand steps the xorshift64* generator and returns the next value.
// The shift/multiply constants match the interpreter's generator so
// compiled and interpreted programs observe the same stream.
func (c *Context) Rand() uint64 {
	x := c.rngState
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	c.rngState = x
	return x * 0x2545F4914F6CDD1D
}
