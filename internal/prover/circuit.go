package prover

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"
)

// TransferCircuit is the 2-in-2-out shielded transfer circuit. Field names
// and the public-input block mirror §4.4's ABI exactly; reordering any
// `gnark:",public"` field changes the on-chain verifier's expected input
// vector and must never be done casually.
//
// Open question (spec §9, circuit-parameter calibration): this circuit's
// in-circuit hash gadget is gnark's Poseidon2 permutation
// (std/permutation/poseidon2), the idiom the pack's proof-of-inclusion
// circuit uses. The off-circuit commitment/nullifier hash
// (internal/field.Poseidon) is the circomlib-parameterized classic Poseidon
// from go-iden3-crypto. The two are different permutations; a production
// deployment MUST calibrate one side or the other against the actual
// verifying key before proofs generated here would verify on-chain. This
// core does not silently assume they match — see DESIGN.md.
type TransferCircuit struct {
	// Public inputs, ABI order per §4.4.
	MerkleRoot        frontend.Variable `gnark:",public"`
	Nullifier1        frontend.Variable `gnark:",public"`
	Nullifier2        frontend.Variable `gnark:",public"`
	OutputCommitment1 frontend.Variable `gnark:",public"`
	OutputCommitment2 frontend.Variable `gnark:",public"`
	PublicAmount      frontend.Variable `gnark:",public"`
	TokenMint         frontend.Variable `gnark:",public"`

	// Private witness: two input notes (possibly dummy) and two output notes.
	InAmount       [2]frontend.Variable
	InOwnerPubkey  [2]frontend.Variable
	InRandomness   [2]frontend.Variable
	InIsDummy      [2]frontend.Variable
	InPathIndices  [2][TreeDepth]frontend.Variable
	InPathElements [2][TreeDepth]frontend.Variable

	OutAmount     [2]frontend.Variable
	OutRecipient  [2]frontend.Variable
	OutRandomness [2]frontend.Variable

	SpendingKey frontend.Variable
}

func newHasher(api frontend.API) (hash.FieldHasher, error) {
	perm, err := poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
	if err != nil {
		return nil, err
	}
	return hash.NewMerkleDamgardHasher(api, perm, 0), nil
}

// Define implements the circuit contract from §4.4:
//   - for each non-dummy input: commitment matches, the Merkle path
//     reconstructs MerkleRoot, owner_pubkey = Poseidon(spending_key), and
//     nullifier = Poseidon(commitment, Poseidon(spending_key));
//   - dummy inputs skip the Merkle-path check entirely;
//   - for each output: commitment matches;
//   - value conservation across inputs, outputs, and the signed public amount.
func (c *TransferCircuit) Define(api frontend.API) error {
	spendingKeyHasher, err := newHasher(api)
	if err != nil {
		return err
	}
	spendingKeyHasher.Write(c.SpendingKey)
	derivedOwnerPubkey := spendingKeyHasher.Sum()
	spendingKeyHasher.Reset()

	nullifiers := [2]frontend.Variable{c.Nullifier1, c.Nullifier2}

	var inputSum frontend.Variable = 0
	for i := 0; i < 2; i++ {
		isReal := api.Sub(1, c.InIsDummy[i])

		// owner_pubkey = Poseidon(spending_key), enforced for real inputs only.
		ownerCheck := api.Sub(c.InOwnerPubkey[i], derivedOwnerPubkey)
		api.AssertIsEqual(api.Mul(ownerCheck, isReal), 0)

		// commitment = Poseidon(amount, owner_pubkey, randomness, token_mint).
		commitHasher, err := newHasher(api)
		if err != nil {
			return err
		}
		commitHasher.Write(c.InAmount[i], c.InOwnerPubkey[i], c.InRandomness[i], c.TokenMint)
		commitment := commitHasher.Sum()
		commitHasher.Reset()

		// nullifier = Poseidon(commitment, Poseidon(spending_key)).
		nullifierHasher, err := newHasher(api)
		if err != nil {
			return err
		}
		nullifierHasher.Write(commitment, derivedOwnerPubkey)
		derivedNullifier := nullifierHasher.Sum()
		nullifierHasher.Reset()

		nullifierCheck := api.Sub(nullifiers[i], derivedNullifier)
		api.AssertIsEqual(api.Mul(nullifierCheck, isReal), 0)

		// Merkle path reconstructs MerkleRoot; ignored for dummy inputs.
		current := commitment
		for level := 0; level < TreeDepth; level++ {
			sibling := c.InPathElements[i][level]
			bit := c.InPathIndices[i][level]

			left := api.Select(bit, sibling, current)
			right := api.Select(bit, current, sibling)

			levelHasher, err := newHasher(api)
			if err != nil {
				return err
			}
			levelHasher.Write(left, right)
			current = levelHasher.Sum()
			levelHasher.Reset()
		}
		rootCheck := api.Sub(current, c.MerkleRoot)
		api.AssertIsEqual(api.Mul(rootCheck, isReal), 0)

		// Dummy inputs must carry amount 0.
		dummyAmountCheck := api.Mul(c.InIsDummy[i], c.InAmount[i])
		api.AssertIsEqual(dummyAmountCheck, 0)

		inputSum = api.Add(inputSum, c.InAmount[i])
	}

	outputs := [2]frontend.Variable{c.OutputCommitment1, c.OutputCommitment2}
	var outputSum frontend.Variable = 0
	for j := 0; j < 2; j++ {
		outHasher, err := newHasher(api)
		if err != nil {
			return err
		}
		outHasher.Write(c.OutAmount[j], c.OutRecipient[j], c.OutRandomness[j], c.TokenMint)
		derivedCommitment := outHasher.Sum()
		outHasher.Reset()

		api.AssertIsEqual(outputs[j], derivedCommitment)
		outputSum = api.Add(outputSum, c.OutAmount[j])
	}

	// Value conservation: in_1 + in_2 + public_amount == out_1 + out_2.
	// PublicAmount is witnessed as the field encoding of a signed int64
	// (two's-complement-free: negative values reduce mod p). Since note
	// amounts are uint64 and the field is ~2^254, this never wraps for any
	// amount that fits in an int64.
	api.AssertIsEqual(api.Add(inputSum, c.PublicAmount), outputSum)

	return nil
}
