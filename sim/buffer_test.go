package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DropTailBuffer", func() {
	var (
		buf Buffer
	)

	BeforeEach(func() {
		buf = NewBuffer("Node[0].Socket[0].RxBuf", 2)
	})

	It("should allow push and pop", func() {
		Expect(buf.Capacity()).To(Equal(2))
		Expect(buf.CanPush()).To(BeTrue())

		Expect(buf.Push(1)).To(BeTrue())
		Expect(buf.CanPush()).To(BeTrue())
		Expect(buf.Size()).To(Equal(1))

		Expect(buf.Push(2)).To(BeTrue())
		Expect(buf.CanPush()).To(BeFalse())

		Expect(buf.Peek()).To(Equal(1))
		Expect(buf.Pop()).To(Equal(1))
		Expect(buf.Pop()).To(Equal(2))
		Expect(buf.Peek()).To(BeNil())
		Expect(buf.Pop()).To(BeNil())
	})

	It("should drop the tail when full", func() {
		buf.Push(1)
		buf.Push(2)

		Expect(buf.Push(3)).To(BeFalse())
		Expect(buf.Push(4)).To(BeFalse())
		Expect(buf.Dropped()).To(Equal(2))
		Expect(buf.Size()).To(Equal(2))

		buf.Pop()
		Expect(buf.Push(5)).To(BeTrue())
		Expect(buf.Pop()).To(Equal(2))
		Expect(buf.Pop()).To(Equal(5))
	})

	It("should report pushes, pops and drops to hooks", func() {
		positions := []*HookPos{}
		buf.AcceptHook(HookFunc(func(ctx HookCtx) {
			positions = append(positions, ctx.Pos)
		}))

		buf.Push(1)
		buf.Push(2)
		buf.Push(3)
		buf.Pop()

		Expect(positions).To(Equal([]*HookPos{
			HookPosBufPush, HookPosBufPush, HookPosBufDrop, HookPosBufPop,
		}))
	})

	It("should clear without counting drops", func() {
		buf.Push(2)
		buf.Clear()

		Expect(buf.Size()).To(Equal(0))
		Expect(buf.Peek()).To(BeNil())
		Expect(buf.Dropped()).To(Equal(0))
	})

	It("should refuse a zero capacity", func() {
		Expect(func() { NewBuffer("Node[0].RxBuf", 0) }).To(Panic())
	})
})

var _ = Describe("Name", func() {
	It("should parse name", func() {
		name := ParseName("Node[0].Sink[1]")
		Expect(name.Tokens[0].ElemName).To(Equal("Node"))
		Expect(name.Tokens[0].Index).To(Equal([]int{0}))
		Expect(name.Tokens[1].ElemName).To(Equal("Sink"))
		Expect(name.Tokens[1].Index).To(Equal([]int{1}))
	})

	It("should build indexed names", func() {
		Expect(BuildNameWithIndex("", "Node", 2)).To(Equal("Node[2]"))
		Expect(BuildName("Node[2]", "Wifi")).To(Equal("Node[2].Wifi"))
	})

	It("should reject invalid names", func() {
		Expect(func() { NameMustBeValid("") }).To(Panic())
		Expect(func() { NameMustBeValid("node") }).To(Panic())
		Expect(func() { NameMustBeValid("Node[0") }).To(Panic())
		Expect(func() { NameMustBeValid("Node[0].Rx_Buf") }).To(Panic())
	})
})

var _ = Describe("DataRate", func() {
	It("should compute transmission time", func() {
		Expect((6 * Mbps).TxTime(750)).To(BeNumerically("~", 0.001, 1e-12))
		Expect((5 * Mbps).TxTime(0)).To(BeNumerically("==", 0))
	})

	It("should parse data rates", func() {
		r, err := ParseDataRate("5Mbps")
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(5 * Mbps))

		r, err = ParseDataRate("100kbps")
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(100 * Kbps))

		_, err = ParseDataRate("fast")
		Expect(err).To(HaveOccurred())
	})

	It("should format data rates", func() {
		Expect((5 * Mbps).String()).To(Equal("5Mbps"))
		Expect((4.5 * Mbps).String()).To(Equal("4.5Mbps"))
	})
})
