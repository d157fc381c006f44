// Package shader compiles the OpenGL programs used by the render surface.
package shader

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Flat-color program: positions transformed by one MVP matrix, color
// taken from the provoking vertex with no interpolation or lighting.
const (
	flatVertexSrc = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aColor;

uniform mat4 uMVP;

flat out vec3 faceColor;

void main() {
	gl_Position = uMVP * vec4(aPos, 1.0);
	faceColor = aColor;
}
`

	flatFragmentSrc = `
#version 410 core

flat in vec3 faceColor;
out vec4 FragColor;

void main() {
	FragColor = vec4(faceColor, 1.0);
}
`
)

// FlatProgram is the linked flat-color program and its uniforms.
type FlatProgram struct {
	ID   uint32
	uMVP int32
}

// NewFlatProgram compiles and links the flat-color program.
func NewFlatProgram() (*FlatProgram, error) {
	id, err := CompileProgram(flatVertexSrc, flatFragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("flat program: %w", err)
	}
	loc, err := Uniform(id, "uMVP")
	if err != nil {
		gl.DeleteProgram(id)
		return nil, err
	}
	return &FlatProgram{ID: id, uMVP: loc}, nil
}

// Use binds the program and uploads the MVP matrix.
func (p *FlatProgram) Use(mvp [16]float32) {
	gl.UseProgram(p.ID)
	gl.UniformMatrix4fv(p.uMVP, 1, false, &mvp[0])
}

// Delete releases the program.
func (p *FlatProgram) Delete() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}

// CompileProgram compiles vertex and fragment shaders and links them into a program.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}

	return program, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, string(log))
	}

	return shader, nil
}

// Uniform returns the location of a required uniform.
func Uniform(program uint32, name string) (int32, error) {
	loc := gl.GetUniformLocation(program, gl.Str(name+"\x00"))
	if loc < 0 {
		return -1, fmt.Errorf("uniform %q not found in program %d", name, program)
	}
	return loc, nil
}
