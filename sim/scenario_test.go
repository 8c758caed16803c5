package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rvdp/log"
)

var _ = Describe("Datapath", func() {
	var (
		dp  *Datapath
		rec *Recorder
	)

	BeforeEach(func() {
		rec = NewRecorder()
		dp = New(DefaultConfig(), WithLogger(log.Discard()), WithObserver(rec))
	})

	Describe("arithmetic, memory and branch program", func() {
		BeforeEach(func() {
			regs := make([]int32, NumRegisters)
			regs[1], regs[2], regs[10], regs[11] = 0x20, 5, 0x70, 4
			mem := make([]int32, DefaultMemoryWords)
			mem[0x70/4], mem[0x74/4] = 5, 0x10
			Expect(dp.Reset(regs, mem)).To(Succeed())

			dp.Load([]uint32{
				lw(1, 10, 0),
				lw(2, 10, 4),
				add(3, 1, 2),
				sub(4, 2, 1),
				and(5, 3, 4),
				or(6, 3, 4),
				sw(6, 10, 8),
				addi(7, 6, -1),
				beq(7, 7, 8),
				addi(8, 0, 99),
				andi(9, 6, 0xf),
				ori(12, 0, 0x100),
			})
		})

		It("should complete in eleven cycles", func() {
			out := dp.Run(0)

			Expect(out.Status).To(Equal(RunCompleted))
			Expect(out.Err()).NotTo(HaveOccurred())
			Expect(out.Cycles).To(Equal(uint64(11)))
			Expect(dp.PC()).To(Equal(uint32(0x30)))
		})

		It("should leave the expected registers and memory", func() {
			dp.Run(0)

			want := map[uint32]int32{1: 5, 2: 0x10, 3: 0x15, 4: 0xB, 5: 0x1, 6: 0x1F, 7: 0x1E, 8: 0, 9: 0xF, 12: 0x100}
			for r, v := range want {
				Expect(dp.Register(r)).To(Equal(v), "x%d", r)
			}
			Expect(dp.Snapshot().Memory[0x78/4]).To(Equal(int32(0x1F)))
		})

		It("should skip the instruction under a taken branch", func() {
			dp.Run(0)

			pcs := make([]uint32, 0, rec.Len())
			for _, s := range rec.Steps {
				pcs = append(pcs, s.PC)
			}
			Expect(pcs).NotTo(ContainElement(uint32(0x24)))
			Expect(pcs).To(HaveLen(11))
		})
	})

	Describe("call and return program", func() {
		BeforeEach(func() {
			Expect(dp.Reset([]int32{8: 0x20, 10: 5, 11: 2, 12: 0xA, 13: 0xF}, nil)).To(Succeed())
			dp.Load([]uint32{
				jal(1, 12),
				addi(14, 0, 7),
				jal(0, 12),
				add(15, 12, 13),
				jalr(0, 1, 0),
			})
		})

		It("should follow the call, return and final jump", func() {
			out := dp.Run(0)

			Expect(out.Status).To(Equal(RunCompleted))
			Expect(out.Cycles).To(Equal(uint64(5)))
			Expect(dp.PC()).To(Equal(uint32(0x14)))
			Expect(dp.Register(1)).To(Equal(int32(4)))
			Expect(dp.Register(14)).To(Equal(int32(7)))
			Expect(dp.Register(15)).To(Equal(int32(0x19)))
		})

		It("should visit pcs in call order", func() {
			dp.Run(0)

			var pcs []uint32
			for _, s := range rec.Steps {
				pcs = append(pcs, s.PC)
			}
			Expect(pcs).To(Equal([]uint32{0x0, 0xC, 0x10, 0x4, 0x8}))
		})
	})

	Describe("fault policy", func() {
		It("should abort without committing a faulting store", func() {
			dp.Load([]uint32{addi(1, 0, 0x41), sw(1, 1, 0), addi(2, 0, 1)})

			out := dp.Run(0)

			Expect(out.Status).To(Equal(RunFaulted))
			Expect(out.Err()).To(MatchError(ErrMisalignedAccess))
			Expect(out.Fault.PC).To(Equal(uint32(4)))
			Expect(dp.PC()).To(Equal(uint32(4)))
			Expect(dp.Cycles()).To(Equal(uint64(1)))
			Expect(dp.Register(2)).To(BeZero())
			Expect(dp.Snapshot().Memory).To(HaveEach(int32(0)))
			Expect(rec.Len()).To(Equal(1))
		})

		It("should report an unsupported opcode", func() {
			dp.Load([]uint32{0x0000007F})

			out := dp.Run(0)

			Expect(out.Status).To(Equal(RunFaulted))
			Expect(out.Err()).To(MatchError(ErrUnsupportedOpcode))
			Expect(out.Fault.Kind).To(Equal(FaultUnsupportedOpcode))
		})
	})

	Describe("cycle budget", func() {
		It("should stop a tight loop", func() {
			dp.Load([]uint32{addi(1, 1, 1), beq(0, 0, -4)})

			out := dp.Run(10)

			Expect(out.Status).To(Equal(RunCycleBudgetExceeded))
			Expect(out.Err()).To(MatchError(ErrCycleBudgetExceeded))
			Expect(dp.Register(1)).To(Equal(int32(5)))
			Expect(rec.Len()).To(Equal(10))
		})
	})
})
