// Package dictionary хранит неизменяемый набор допустимых слов для словесной игры
// и отвечает на запросы "является ли токен словом".
//
// Словарь загружается один раз при старте и после этого только читается, поэтому
// безопасен для одновременного использования из любого числа горутин без блокировок.
package dictionary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// ErrInvalidInput возвращается, если после нормализации слово пустое.
var ErrInvalidInput = errors.New("no word provided")

// Result результат проверки слова.
type Result struct {
	Valid bool   `json:"valid"`
	Word  string `json:"word"`
}

// Dictionary неизменяемое множество нормализованных слов.
type Dictionary struct {
	words map[string]struct{}
}

// Normalize обрезает пробельные символы по краям и переводит слово в верхний регистр.
func Normalize(word string) string {
	return strings.ToUpper(strings.TrimSpace(word))
}

// New строит словарь из переданных слов.
func New(words ...string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		d.add(w)
	}
	return d
}

// Load читает список слов из файла, по одному слову в строке.
//
// Отсутствующий файл не считается ошибкой: возвращается пустой словарь, и сервис
// продолжает работать в деградированном режиме. Вызывающий код должен это залогировать.
func Load(path string) (*Dictionary, error) {
	const op = "dictionary.Load"
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = f.Close()
	}()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// Read строит словарь из потока строк.
func Read(r io.Reader) (*Dictionary, error) {
	d := New()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		d.add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dictionary) add(word string) {
	if w := Normalize(word); w != "" {
		d.words[w] = struct{}{}
	}
}

// Len количество слов в словаре.
func (d *Dictionary) Len() int {
	return len(d.words)
}

// Contains проверяет наличие слова после нормализации.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[Normalize(word)]
	return ok
}

// Validate нормализует слово и проверяет его наличие в словаре.
func (d *Dictionary) Validate(word string) (Result, error) {
	w := Normalize(word)
	if w == "" {
		return Result{}, ErrInvalidInput
	}
	_, ok := d.words[w]
	return Result{Valid: ok, Word: w}, nil
}
