package ecc

// Reed-Solomon codec over GF(256) byte symbols with errata decoding:
// syndromes, Forney syndromes for known erasures, Berlekamp-Massey for the
// remaining error locator, Chien search, and Forney magnitudes. A codeword
// holds at most 255 symbols; r parity symbols correct e errors and s
// erasures as long as 2e+s <= r.

import (
	"github.com/pkg/errors"
)

// maxCodeword is the symbol capacity of one RS codeword over GF(256).
const maxCodeword = 255

// ErrTooManySymbols is returned when data plus parity exceed one codeword.
var ErrTooManySymbols = errors.New("ecc: too many symbols for one RS codeword")

// errUncorrectable tags codewords whose errata are beyond the parity budget;
// callers fall back to the uncorrected data.
var errUncorrectable = errors.New("ecc: uncorrectable codeword")

// generatorPoly returns the generator polynomial for nsym parity symbols.
func generatorPoly(nsym int) []byte {
	g := []byte{1}
	for i := 0; i < nsym; i++ {
		g = polyMul(g, []byte{1, gfPow(2, i)})
	}
	return g
}

// rsEncode appends nsym parity symbols to msg.
func rsEncode(msg []byte, nsym int) []byte {
	if nsym <= 0 {
		return append([]byte(nil), msg...)
	}
	gen := generatorPoly(nsym)
	out := make([]byte, len(msg)+nsym)
	copy(out, msg)
	for i := 0; i < len(msg); i++ {
		coef := out[i]
		if coef == 0 {
			continue
		}
		for j := 1; j < len(gen); j++ {
			out[i+j] ^= gfMul(gen[j], coef)
		}
	}
	copy(out, msg)
	return out
}

// calcSyndromes returns the nsym+1 syndromes of msg with a leading zero
// constant term.
func calcSyndromes(msg []byte, nsym int) []byte {
	synd := make([]byte, nsym+1)
	for i := 0; i < nsym; i++ {
		synd[i+1] = polyEval(msg, gfPow(2, i))
	}
	return synd
}

func allZero(p []byte) bool {
	for _, c := range p {
		if c != 0 {
			return false
		}
	}
	return true
}

// forneySyndromes folds the known erasure positions out of the syndromes so
// Berlekamp-Massey only has to locate the unknown errors.
func forneySyndromes(synd []byte, erasePos []int, nmess int) []byte {
	fsynd := append([]byte(nil), synd[1:]...)
	for _, pos := range erasePos {
		x := gfPow(2, nmess-1-pos)
		for j := 0; j < len(fsynd)-1; j++ {
			fsynd[j] = gfMul(fsynd[j], x) ^ fsynd[j+1]
		}
	}
	return fsynd
}

// findErrorLocator runs Berlekamp-Massey on the (Forney) syndromes and
// returns the error locator polynomial.
func findErrorLocator(synd []byte, nsym, eraseCount int) ([]byte, error) {
	errLoc := []byte{1}
	oldLoc := []byte{1}
	for i := 0; i < nsym-eraseCount; i++ {
		delta := synd[i]
		for j := 1; j < len(errLoc); j++ {
			delta ^= gfMul(errLoc[len(errLoc)-1-j], synd[i-j])
		}
		oldLoc = append(oldLoc, 0)
		if delta != 0 {
			if len(oldLoc) > len(errLoc) {
				newLoc := polyScale(oldLoc, delta)
				oldLoc = polyScale(errLoc, gfInv(delta))
				errLoc = newLoc
			}
			errLoc = polyAdd(errLoc, polyScale(oldLoc, delta))
		}
	}
	for len(errLoc) > 0 && errLoc[0] == 0 {
		errLoc = errLoc[1:]
	}
	errs := len(errLoc) - 1
	if 2*errs+eraseCount > nsym {
		return nil, errors.Wrapf(errUncorrectable, "%d errors and %d erasures exceed %d parity symbols", errs, eraseCount, nsym)
	}
	return errLoc, nil
}

// findErrors locates the error positions by Chien search over the reversed
// locator polynomial.
func findErrors(errLocRev []byte, nmess int) ([]int, error) {
	errs := len(errLocRev) - 1
	var pos []int
	for i := 0; i < nmess; i++ {
		if polyEval(errLocRev, gfPow(2, i)) == 0 {
			pos = append(pos, nmess-1-i)
		}
	}
	if len(pos) != errs {
		return nil, errors.Wrapf(errUncorrectable, "located %d of %d errors", len(pos), errs)
	}
	return pos, nil
}

// findErrataLocator builds the locator polynomial for known coefficient
// positions.
func findErrataLocator(coefPos []int) []byte {
	loc := []byte{1}
	for _, p := range coefPos {
		loc = polyMul(loc, polyAdd([]byte{1}, []byte{gfPow(2, p), 0}))
	}
	return loc
}

// findErrorEvaluator returns synd*errLoc mod x^(nsym+1).
func findErrorEvaluator(synd, errLoc []byte, nsym int) []byte {
	product := polyMul(synd, errLoc)
	if len(product) > nsym+1 {
		product = product[len(product)-(nsym+1):]
	}
	return product
}

// correctErrata computes the error magnitudes at the given positions with
// Forney's algorithm and corrects msg in place.
func correctErrata(msg, synd []byte, errataPos []int) ([]byte, error) {
	coefPos := make([]int, len(errataPos))
	for i, p := range errataPos {
		coefPos[i] = len(msg) - 1 - p
	}
	errLoc := findErrataLocator(coefPos)
	errEval := reverse(findErrorEvaluator(reverse(synd), errLoc, len(errLoc)-1))

	xs := make([]byte, len(coefPos))
	for i, p := range coefPos {
		xs[i] = gfPow(2, p)
	}

	for i, xi := range xs {
		xiInv := gfInv(xi)
		locPrime := byte(1)
		for j, xj := range xs {
			if j == i {
				continue
			}
			locPrime = gfMul(locPrime, 1^gfMul(xiInv, xj))
		}
		if locPrime == 0 {
			return nil, errors.Wrap(errUncorrectable, "zero formal derivative")
		}
		y := polyEval(reverse(errEval), xiInv)
		y = gfMul(xi, y)
		msg[errataPos[i]] ^= gfDiv(y, locPrime)
	}
	return msg, nil
}

// rsDecode corrects msg (data plus nsym parity symbols) with the optional
// erasure positions and returns the corrected codeword.
func rsDecode(msg []byte, nsym int, erasePos []int) ([]byte, error) {
	if len(msg) > maxCodeword {
		return nil, errors.Wrapf(ErrTooManySymbols, "%d symbols", len(msg))
	}
	out := append([]byte(nil), msg...)
	if len(erasePos) > nsym {
		return nil, errors.Wrapf(errUncorrectable, "%d erasures exceed %d parity symbols", len(erasePos), nsym)
	}
	for _, p := range erasePos {
		out[p] = 0
	}
	synd := calcSyndromes(out, nsym)
	if allZero(synd) {
		return out, nil
	}
	fsynd := forneySyndromes(synd, erasePos, len(out))
	errLoc, err := findErrorLocator(fsynd, nsym, len(erasePos))
	if err != nil {
		return nil, err
	}
	var errPos []int
	if len(errLoc) > 1 {
		errPos, err = findErrors(reverse(errLoc), len(out))
		if err != nil {
			return nil, err
		}
	}
	errataPos := append(append([]int(nil), erasePos...), errPos...)
	out, err = correctErrata(out, synd, errataPos)
	if err != nil {
		return nil, err
	}
	if !allZero(calcSyndromes(out, nsym)) {
		return nil, errors.Wrap(errUncorrectable, "residual syndromes after correction")
	}
	return out, nil
}
