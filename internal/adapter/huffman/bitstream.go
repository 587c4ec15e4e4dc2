package huffman

// Bitstream is a sequence of Len bits packed most significant bit first.
type Bitstream struct {
	Bytes []byte
	Len   int
}

func (b *Bitstream) writeCode(code string) {
	for i := 0; i < len(code); i++ {
		if b.Len%8 == 0 {
			b.Bytes = append(b.Bytes, 0)
		}
		if code[i] == '1' {
			b.Bytes[b.Len/8] |= 0x80 >> (b.Len % 8)
		}
		b.Len++
	}
}

// Bit reports the i-th bit.
func (b Bitstream) Bit(i int) bool {
	return b.Bytes[i/8]&(0x80>>(i%8)) != 0
}

// String renders the stream as '0' and '1' characters.
func (b Bitstream) String() string {
	out := make([]byte, b.Len)
	for i := 0; i < b.Len; i++ {
		if b.Bit(i) {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}
