// Package mintcircuit implements the confidential-mint NP relation and its
// Groth16 proof system on BN254.
//
// Overview:
//   - Pedersen commitment C = amount*G + blinding*H over the BN254-embedded
//     twisted Edwards curve (Baby Jubjub); H is derived nothing-up-my-sleeve
//     by hash-to-point, so no party knows log_G(H)
//   - 64-bit range decomposition of amount and daily limit, amount > 0,
//     amount <= daily limit, all enforced inside the constraint system
//   - MiMC hash bindings tying the witness public key and the daily limit to
//     the public authority-hash and limit-hash
//   - Fixed public-signal order: commitmentX, commitmentY, authorityHash,
//     limitHash, nonce, epoch
//
// Security model:
//   - Hiding comes from the blinding factor (crypto/rand, reduced below the
//     subgroup order); binding reduces to discrete log on Baby Jubjub
//   - Proofs are 128 bytes compressed (G1 + G2 + G1) and verify with a single
//     pairing equation against a verifying key loaded once at startup
//
// Proving is an expensive offline operation performed by the minter;
// verification is constant-time in the circuit size.
package mintcircuit
