package exchange

// Buffer 连接上尚未处理的字节
//
// 状态机只在完整读到一个帧头或负载时才消费字节，
// 数据不足时字节保留在 Buffer 中等待下一次调用。
type Buffer struct {
	b []byte
}

// NewBuffer 以 data 为初始内容创建 Buffer（不复制）
func NewBuffer(data []byte) *Buffer {
	return &Buffer{b: data}
}

// Len 未处理字节数
func (b *Buffer) Len() int {
	return len(b.b)
}

// Bytes 返回未处理字节，调用方不得修改
func (b *Buffer) Bytes() []byte {
	return b.b
}

// Append 追加字节
func (b *Buffer) Append(p []byte) {
	b.b = append(b.b, p...)
}

// Prepend 在最前面插入字节
func (b *Buffer) Prepend(p []byte) {
	if len(p) == 0 {
		return
	}
	out := make([]byte, 0, len(p)+len(b.b))
	out = append(out, p...)
	b.b = append(out, b.b...)
}

// Peek 返回前 n 个字节，不足 n 个时返回 false
func (b *Buffer) Peek(n int) ([]byte, bool) {
	if n < 0 || len(b.b) < n {
		return nil, false
	}
	return b.b[:n], true
}

// Drain 丢弃前 n 个字节
func (b *Buffer) Drain(n int) {
	if n >= len(b.b) {
		b.b = b.b[:0]
		return
	}
	b.b = b.b[n:]
}

// Take 取出前 n 个字节（复制）并从 Buffer 中移除
func (b *Buffer) Take(n int) []byte {
	if n > len(b.b) {
		n = len(b.b)
	}
	out := make([]byte, n)
	copy(out, b.b)
	b.Drain(n)
	return out
}

// Reset 清空
func (b *Buffer) Reset() {
	b.b = b.b[:0]
}
