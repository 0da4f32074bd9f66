package glrender

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Mesh vertex shader shared by the grid and the flat-colour materials.
const meshVertSrc = `#version 410 core

layout(location = 0) in vec3 aPos;
layout(location = 1) in vec2 aUV;

uniform mat4 uMVP;

out vec2 vUV;

void main() {
    vUV = aUV;
    gl_Position = uMVP * vec4(aPos, 1.0);
}
` + "\x00"

// Grid fragment shader: anti-aliased lines scrolled along v, pulsing with
// time and boosted for bloom by the theme's glow intensity.
const gridFragSrc = `#version 410 core

uniform float uTime;
uniform float uScroll;
uniform float uGlow;

in vec2 vUV;
out vec4 FragColor;

void main() {
    vec2 uv = vUV * 20.0;
    uv.y += uScroll;
    vec2 grid = abs(fract(uv - 0.5) - 0.5) / fwidth(uv);
    float line = min(grid.x, grid.y);
    float opacity = 1.0 - min(line, 1.0);
    opacity *= 0.35 * uGlow;

    float pulse = 0.8 + 0.3 * sin(uTime * 2.0);
    vec3 color = vec3(0.0, 0.85, 1.0) * opacity * pulse;
    color += vec3(0.0, 0.2, 0.3) * opacity * uGlow;

    FragColor = vec4(color, opacity);
}
` + "\x00"

// Flat fragment shader for HUD rings and speed lines.
const flatFragSrc = `#version 410 core

uniform vec3 uColor;
uniform float uOpacity;

out vec4 FragColor;

void main() {
    FragColor = vec4(uColor, uOpacity);
}
` + "\x00"

// Star vertex shader: world-space points with perspective size attenuation.
const starVertSrc = `#version 410 core

layout(location = 0) in vec3 aPos;

uniform mat4 uView;
uniform mat4 uProj;
uniform float uSize;
uniform float uScale;

void main() {
    vec4 mv = uView * vec4(aPos, 1.0);
    gl_Position = uProj * mv;
    gl_PointSize = max(1.0, uSize * (uScale / -mv.z));
}
` + "\x00"

// Star fragment shader: textured point sprite with alpha test.
const starFragSrc = `#version 410 core

uniform sampler2D uSprite;
uniform vec3 uColor;
uniform float uOpacity;
uniform float uAlphaTest;

out vec4 FragColor;

void main() {
    vec4 t = texture(uSprite, gl_PointCoord);
    float a = t.a * uOpacity;
    if (a < uAlphaTest) discard;
    FragColor = vec4(uColor, a);
}
` + "\x00"

// Fullscreen vertex shader for every post-processing stage.
const quadVertSrc = `#version 410 core

layout(location = 0) in vec2 aPos; // 0..1 quad vertex

out vec2 vUV;

void main() {
    vUV = aPos;
    gl_Position = vec4(aPos * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"

// Bright pass: keeps what is above the bloom threshold.
const brightFragSrc = `#version 410 core

uniform sampler2D uSrc;
uniform float uThreshold;

in vec2 vUV;
out vec4 FragColor;

void main() {
    vec4 c = texture(uSrc, vUV);
    float lum = dot(c.rgb, vec3(0.299, 0.587, 0.114));
    float k = smoothstep(uThreshold, uThreshold + 0.01, lum);
    FragColor = vec4(c.rgb * k, 1.0);
}
` + "\x00"

// Separable gaussian blur. uDir is one texel along the blur axis, scaled
// by the bloom radius.
const blurFragSrc = `#version 410 core

uniform sampler2D uSrc;
uniform vec2 uDir;
uniform float uWeights[5];

in vec2 vUV;
out vec4 FragColor;

void main() {
    vec3 sum = texture(uSrc, vUV).rgb * uWeights[0];
    for (int i = 1; i < 5; i++) {
        vec2 off = uDir * float(i);
        sum += texture(uSrc, vUV + off).rgb * uWeights[i];
        sum += texture(uSrc, vUV - off).rgb * uWeights[i];
    }
    FragColor = vec4(sum, 1.0);
}
` + "\x00"

// Composite: optional bloom add, optional ACES tone mapping, optional
// invert. Colours are premultiplied by alpha throughout the chain.
const compositeFragSrc = `#version 410 core

uniform sampler2D uSrc;
uniform sampler2D uBloom;
uniform float uBloomStrength;
uniform int uToneMap;
uniform float uExposure;
uniform int uInvert;

in vec2 vUV;
out vec4 FragColor;

vec3 aces(vec3 x) {
    x *= uExposure / 0.6;
    mat3 m1 = mat3(0.59719, 0.07600, 0.02840,
                   0.35458, 0.90834, 0.13383,
                   0.04823, 0.01566, 0.83777);
    mat3 m2 = mat3(1.60475, -0.10208, -0.00327,
                   -0.53108, 1.10813, -0.07276,
                   -0.07367, -0.00605, 1.07602);
    vec3 v = m1 * x;
    vec3 a = v * (v + 0.0245786) - 0.000090537;
    vec3 b = v * (0.983729 * v + 0.4329510) + 0.238081;
    return clamp(m2 * (a / b), 0.0, 1.0);
}

void main() {
    vec4 c = texture(uSrc, vUV);
    if (uBloomStrength > 0.0) {
        vec3 glow = texture(uBloom, vUV).rgb * uBloomStrength;
        c.rgb += glow;
        c.a = clamp(max(c.a, max(glow.r, max(glow.g, glow.b))), 0.0, 1.0);
    }
    if (uToneMap != 0) {
        c.rgb = aces(c.rgb);
    }
    if (uInvert != 0) {
        vec3 straight = c.a > 0.0 ? c.rgb / c.a : vec3(0.0);
        c.rgb = (1.0 - clamp(straight, 0.0, 1.0)) * c.a;
    }
    FragColor = c;
}
` + "\x00"

// stageName labels a shader type in errors.
func stageName(shaderType uint32) string {
	switch shaderType {
	case gl.VERTEX_SHADER:
		return "vertex"
	case gl.FRAGMENT_SHADER:
		return "fragment"
	}
	return fmt.Sprintf("0x%x", shaderType)
}

// infoLog trims the NUL padding GL leaves in an info log buffer.
func infoLog(buf []byte) string {
	return strings.TrimSpace(strings.TrimRight(string(buf), "\x00"))
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	src, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, src, nil)
	free()
	gl.CompileShader(shader)

	var ok int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &ok)
	if ok == gl.TRUE {
		return shader, nil
	}
	var n int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &n)
	buf := make([]byte, n+1)
	gl.GetShaderInfoLog(shader, n, nil, &buf[0])
	gl.DeleteShader(shader)
	return 0, fmt.Errorf("%s shader: %s", stageName(shaderType), infoLog(buf))
}

// linkProgram builds the named program from a vertex and fragment stage.
// Stages are released whether or not linking succeeds.
func linkProgram(name, vertSrc, fragSrc string) (uint32, error) {
	var stages [2]uint32
	for i, st := range []struct {
		src string
		typ uint32
	}{{vertSrc, gl.VERTEX_SHADER}, {fragSrc, gl.FRAGMENT_SHADER}} {
		sh, err := compileShader(st.src, st.typ)
		if err != nil {
			if stages[0] != 0 {
				gl.DeleteShader(stages[0])
			}
			return 0, fmt.Errorf("%s program: %w", name, err)
		}
		stages[i] = sh
	}

	program := gl.CreateProgram()
	for _, sh := range stages {
		gl.AttachShader(program, sh)
	}
	gl.LinkProgram(program)
	for _, sh := range stages {
		gl.DetachShader(program, sh)
		gl.DeleteShader(sh)
	}

	var ok int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &ok)
	if ok == gl.TRUE {
		return program, nil
	}
	var n int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &n)
	buf := make([]byte, n+1)
	gl.GetProgramInfoLog(program, n, nil, &buf[0])
	gl.DeleteProgram(program)
	return 0, fmt.Errorf("link %s program: %s", name, infoLog(buf))
}

func uniform(prog uint32, name string) int32 {
	return gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
}
