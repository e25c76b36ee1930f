package payload

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/wavesim/network"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Buffer", func() {
	var (
		mockCtrl *gomock.Controller
		sender   *MockSender
		buf      Buffer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		sender = NewMockSender(mockCtrl)
		buf = Buffer{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should start empty", func() {
		Expect(buf.Size()).To(Equal(0))
	})

	It("should terminate the content", func() {
		buf.SetFill("haha")

		Expect(buf.Size()).To(Equal(5))
		Expect(buf.Bytes()).To(Equal([]byte("haha\x00")))
	})

	It("should shrink to the new content", func() {
		buf.SetFill("longstring")
		buf.SetFill("ab")

		Expect(buf.Size()).To(Equal(3))
		Expect(buf.Bytes()).To(Equal([]byte("ab\x00")))
	})

	It("should keep storage when the length is unchanged", func() {
		buf.SetFill("abcd")
		storage := &buf.data[0]

		buf.SetFill("wxyz")
		Expect(&buf.data[0]).To(BeIdenticalTo(storage))
		Expect(buf.Bytes()).To(Equal([]byte("wxyz\x00")))

		buf.SetFill("wxyz")
		Expect(&buf.data[0]).To(BeIdenticalTo(storage))
		Expect(buf.Size()).To(Equal(5))
	})

	It("should send one packet with the content", func() {
		buf.SetFill("haha")

		sender.EXPECT().
			Send(gomock.Any()).
			DoAndReturn(func(p *network.Packet) error {
				Expect(p.Size()).To(Equal(5))
				Expect(p.Bytes()).To(Equal([]byte("haha\x00")))
				return nil
			})

		Expect(buf.Send(sender)).To(Succeed())
		Expect(buf.Bytes()).To(Equal([]byte("haha\x00")))
	})

	It("should return send errors", func() {
		buf.SetFill("x")
		sender.EXPECT().Send(gomock.Any()).Return(errors.New("closed"))

		Expect(buf.Send(sender)).To(MatchError("closed"))
	})

	It("should not be affected by later fills", func() {
		buf.SetFill("one")

		var sent *network.Packet
		sender.EXPECT().
			Send(gomock.Any()).
			Do(func(p *network.Packet) { sent = p })
		Expect(buf.Send(sender)).To(Succeed())

		buf.SetFill("two")
		Expect(sent.Bytes()).To(Equal([]byte("one\x00")))
	})
})
