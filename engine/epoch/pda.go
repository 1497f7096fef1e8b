package epoch

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/foresterd/forester/model/forester"
)

// derivePDA computes the forester-epoch PDA address for (programID, payer,
// epoch). Real program-derived-address derivation is elliptic-curve
// arithmetic owned by the outer protocol's deployment, out of scope for
// this core (spec.md §1 treats on-chain crypto as given); this is a
// deterministic stdlib stand-in producing a stable per-(forester,epoch)
// address.
func derivePDA(programID, payer forester.Pubkey, epoch uint64) forester.Pubkey {
	h := sha256.New()
	h.Write([]byte("forester_epoch"))
	h.Write(programID[:])
	h.Write(payer[:])
	var epochBytes [8]byte
	binary.LittleEndian.PutUint64(epochBytes[:], epoch)
	h.Write(epochBytes[:])

	sum := h.Sum(nil)
	var pda forester.Pubkey
	copy(pda[:], sum)
	return pda
}

// decodeForesterEpochPda parses the account bytes backing a
// ForesterEpochPda: a 32-byte schedule seed followed by two little-endian
// uint64 light-slot bounds.
func decodeForesterEpochPda(forester_ forester.Pubkey, epoch uint64, data []byte) forester.ForesterEpochPda {
	var pda forester.ForesterEpochPda
	pda.Forester = forester_
	pda.Epoch = epoch
	if len(data) < 48 {
		return pda
	}
	copy(pda.ScheduleSeed[:], data[0:32])
	pda.FinalizedLightSlotStart = binary.LittleEndian.Uint64(data[32:40])
	pda.FinalizedLightSlotEnd = binary.LittleEndian.Uint64(data[40:48])
	return pda
}

// deriveSchedule builds tree's eligibility bitmap from the PDA's finalized
// light-slot range. The range itself — which forester is assigned which
// slots — is the outer protocol's fairness guarantee (spec.md §3: "exactly
// one forester is eligible per (tree, light-slot)"); this core only reads
// the already-assigned range back and expands it into the per-slot bitmap
// TreeForesterSchedule requires.
func deriveSchedule(pda forester.ForesterEpochPda, tree forester.TreeAccounts, lightSlotCount uint64) forester.TreeForesterSchedule {
	slots := make([]bool, lightSlotCount)
	end := pda.FinalizedLightSlotEnd
	if end > lightSlotCount {
		end = lightSlotCount
	}
	for i := pda.FinalizedLightSlotStart; i < end; i++ {
		slots[i] = true
	}
	return forester.TreeForesterSchedule{Tree: tree, Slots: slots}
}
